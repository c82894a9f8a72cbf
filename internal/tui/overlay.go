package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// OverlayState is the state of the select-N overlay
type OverlayState int

const (
	OverlayClosed OverlayState = iota
	OverlayOpen
)

func (s OverlayState) String() string {
	if s == OverlayOpen {
		return "open"
	}
	return "closed"
}

// MinSelectCount is the smallest count the overlay submits
const MinSelectCount = 1

// SelectOverlay asks for the number of records to select
type SelectOverlay struct {
	state OverlayState
	input textinput.Model
	err   string
}

// NewSelectOverlay creates a closed overlay
func NewSelectOverlay() SelectOverlay {
	ti := textinput.New()
	ti.Placeholder = "Enter number of rows"
	ti.CharLimit = 9
	ti.Width = 24
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(White)
	ti.PlaceholderStyle = DimStyle

	return SelectOverlay{input: ti}
}

// Open shows the overlay with an empty input
func (o *SelectOverlay) Open() {
	o.state = OverlayOpen
	o.err = ""
	o.input.SetValue("")
	o.input.Focus()
}

// Close hides the overlay
func (o *SelectOverlay) Close() {
	o.state = OverlayClosed
	o.err = ""
	o.input.Blur()
}

// Toggle opens a closed overlay and closes an open one
func (o *SelectOverlay) Toggle() {
	if o.state == OverlayOpen {
		o.Close()
		return
	}
	o.Open()
}

// State returns the current overlay state
func (o SelectOverlay) State() OverlayState {
	return o.state
}

// IsOpen returns whether the overlay is shown
func (o SelectOverlay) IsOpen() bool {
	return o.state == OverlayOpen
}

// Update handles input events, returns (overlay, cmd, count, submitted).
// An empty input ignores submit. A valid submit closes the overlay.
func (o SelectOverlay) Update(msg tea.Msg, keys KeyMap) (SelectOverlay, tea.Cmd, int, bool) {
	if o.state != OverlayOpen {
		return o, nil, 0, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Submit):
			raw := strings.TrimSpace(o.input.Value())
			if raw == "" {
				return o, nil, 0, false
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < MinSelectCount {
				o.err = "enter a whole number of at least 1"
				return o, nil, 0, false
			}
			o.Close()
			return o, nil, n, true
		case key.Matches(keyMsg, keys.Escape):
			o.Close()
			return o, nil, 0, false
		}
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return o, cmd, 0, false
}

// View renders the overlay, empty when closed
func (o SelectOverlay) View() string {
	if o.state != OverlayOpen {
		return ""
	}

	lines := []string{
		TitleStyle.Render("Select rows"),
		o.input.View(),
	}
	if o.err != "" {
		lines = append(lines, ErrorStyle.Render(o.err))
	}
	lines = append(lines, DimStyle.Render("enter select · esc cancel"))

	return OverlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
