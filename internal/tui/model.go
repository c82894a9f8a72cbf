// Package tui is the terminal browser for the artwork collection.
//
// The model only emits controller events (page change, selection change,
// select-N) as commands and renders the View the controller returns. The
// select-N overlay is a closed/open state machine owned here; the controller
// only ever sees the submitted count.
package tui

import (
	"context"
	"fmt"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of *controller.Controller the browser drives.
type Controller interface {
	View(ctx context.Context) (controller.View, error)
	Reload(ctx context.Context) error
	OnPageChange(ctx context.Context, first, rowsPerPage int) error
	OnSelectionChange(ctx context.Context, pageIDs, visibleSelected []artwork.ID) (selection.Diff, error)
	SelectCount(ctx context.Context, n int) (pagination.Outcome, error)
}

// Model is the Bubble Tea model for the browser
type Model struct {
	ctrl Controller
	keys KeyMap

	view   controller.View
	cursor int

	overlay SelectOverlay
	spinner spinner.Model

	// loading is set while a page command is outstanding
	loading     bool
	bulkRunning bool

	StatusMsg   string
	StatusIsErr bool

	Width  int
	Height int
}

// New creates a new browser model
func New(ctrl Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HeaderStyle

	return Model{
		ctrl:    ctrl,
		keys:    DefaultKeyMap(),
		overlay: NewSelectOverlay(),
		spinner: sp,
		loading: true,
	}
}

// Init loads the first page
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ReloadCmd(m.ctrl))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ViewLoadedMsg:
		m.loading = false
		m.view = msg.View
		m.clampCursor()
		if msg.View.Err != nil {
			m.setError("loading page", msg.View.Err)
		}
		return m, nil

	case BulkDoneMsg:
		m.bulkRunning = false
		m.StatusMsg, m.StatusIsErr = describeOutcome(msg.Outcome)
		return m, ViewCmd(m.ctrl)

	case ErrMsg:
		m.loading = false
		m.setError(msg.Context, msg.Err)
		return m, ViewCmd(m.ctrl)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay.IsOpen() {
		var cmd tea.Cmd
		var n int
		var submitted bool
		m.overlay, cmd, n, submitted = m.overlay.Update(msg, m.keys)
		if !submitted {
			return m, cmd
		}
		m.bulkRunning = true
		m.StatusMsg = fmt.Sprintf("Selecting %d records...", n)
		m.StatusIsErr = false
		return m, tea.Batch(cmd, SelectCountCmd(m.ctrl, n), m.spinner.Tick)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Records)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if !m.hasNextPage() {
			return m, nil
		}
		return m.changePage(m.view.FirstIndex+m.view.Rows, m.view.Rows)

	case key.Matches(msg, m.keys.PrevPage):
		if m.view.Page <= 1 {
			return m, nil
		}
		return m.changePage(m.view.FirstIndex-m.view.Rows, m.view.Rows)

	case key.Matches(msg, m.keys.MoreRows):
		return m.changePage(m.view.FirstIndex, m.view.Rows+pagination.DefaultRows)

	case key.Matches(msg, m.keys.LessRows):
		if m.view.Rows <= pagination.DefaultRows {
			return m, nil
		}
		return m.changePage(m.view.FirstIndex, m.view.Rows-pagination.DefaultRows)

	// Rows on screen belong to the previous page while a page load runs.
	case key.Matches(msg, m.keys.Toggle):
		if m.loading || len(m.view.Records) == 0 {
			return m, nil
		}
		return m, SelectionChangeCmd(m.ctrl, m.view.PageIDs(), toggleID(m.view.SelectedIDs(), m.view.Records[m.cursor].ID))

	case key.Matches(msg, m.keys.ToggleAll):
		if m.loading || len(m.view.Records) == 0 {
			return m, nil
		}
		pageIDs := m.view.PageIDs()
		ids := pageIDs
		if len(m.view.Selected) == len(m.view.Records) {
			ids = nil
		}
		return m, SelectionChangeCmd(m.ctrl, pageIDs, ids)

	case key.Matches(msg, m.keys.SelectN):
		m.overlay.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(ReloadCmd(m.ctrl), m.spinner.Tick)
	}

	return m, nil
}

func (m Model) changePage(first, rows int) (tea.Model, tea.Cmd) {
	m.loading = true
	m.cursor = 0
	return m, tea.Batch(PageChangeCmd(m.ctrl, max(first, 0), rows), m.spinner.Tick)
}

func (m Model) hasNextPage() bool {
	return m.view.Rows > 0 && m.view.FirstIndex+m.view.Rows < m.view.TotalRecords
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.Records) {
		m.cursor = max(len(m.view.Records)-1, 0)
	}
}

func (m *Model) setError(context string, err error) {
	m.StatusMsg = fmt.Sprintf("Error %s: %v", context, err)
	m.StatusIsErr = true
}

// Busy reports whether a fetch is running
func (m Model) Busy() bool {
	return m.loading || m.bulkRunning || m.view.Loading
}

// Overlay returns the select-N overlay
func (m Model) Overlay() SelectOverlay {
	return m.overlay
}

// CurrentView returns the last rendered controller view
func (m Model) CurrentView() controller.View {
	return m.view
}

// toggleID returns ids with id added, or removed when present
func toggleID(ids []artwork.ID, id artwork.ID) []artwork.ID {
	out := make([]artwork.ID, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

func describeOutcome(o pagination.Outcome) (string, bool) {
	switch o.Status {
	case pagination.StatusNoop:
		return "Nothing to select", false
	case pagination.StatusCancelled:
		return fmt.Sprintf("Selection cancelled after %d records", o.Selected), false
	case pagination.StatusFailed:
		return fmt.Sprintf("Selected %d of %d records: %s", o.Selected, o.Requested, o.Error), true
	}
	if o.Exhausted {
		return fmt.Sprintf("Selected %d records (collection ended)", o.Selected), false
	}
	return fmt.Sprintf("Selected %d records", o.Selected), false
}

// Run starts the browser and blocks until it quits or ctx is done
func Run(ctx context.Context, ctrl Controller) error {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
