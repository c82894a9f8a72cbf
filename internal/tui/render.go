package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// EmptyMessage is shown for a page without records
const EmptyMessage = "No data found"

// Column is one table column
type Column struct {
	Title string
	Width int
	Value func(artwork.Artwork) string
}

// Columns are the table columns after the checkbox
var Columns = []Column{
	{Title: "Title", Width: 32, Value: func(a artwork.Artwork) string { return a.Title }},
	{Title: "Place of Origin", Width: 16, Value: func(a artwork.Artwork) string { return a.PlaceOfOrigin }},
	{Title: "Artist", Width: 28, Value: func(a artwork.Artwork) string { return a.ArtistDisplay }},
	{Title: "Inscriptions", Width: 20, Value: func(a artwork.Artwork) string { return a.InscriptionText() }},
	{Title: "Start Date", Width: 10, Value: func(a artwork.Artwork) string { return strconv.Itoa(a.DateStart) }},
	{Title: "End Date", Width: 10, Value: func(a artwork.Artwork) string { return strconv.Itoa(a.DateEnd) }},
}

// cell fits s into exactly width terminal cells
func cell(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// View renders the browser
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderTable(),
		m.renderFooter(),
	}
	if m.overlay.IsOpen() {
		sections = append(sections, m.overlay.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	v := m.view
	pages := 0
	if v.Rows > 0 {
		pages = (v.TotalRecords + v.Rows - 1) / v.Rows
	}

	info := fmt.Sprintf("page %d of %d · %d records · %d selected", v.Page, pages, v.TotalRecords, v.SelectedTotal)
	header := TitleStyle.Render("Artworks") + "  " + DimStyle.Render(info)
	if m.Busy() {
		header += "  " + m.spinner.View()
	}
	return header
}

func (m Model) renderTable() string {
	var b strings.Builder

	head := []string{cell("", len(UncheckedBox))}
	for _, c := range Columns {
		head = append(head, cell(c.Title, c.Width))
	}
	b.WriteString(HeaderStyle.Render(strings.Join(head, " ")))
	b.WriteString("\n")

	if len(m.view.Records) == 0 {
		if m.Busy() {
			b.WriteString(DimStyle.Render("Loading..."))
		} else {
			b.WriteString(DimStyle.Render(EmptyMessage))
		}
		return b.String()
	}

	selected := make(map[artwork.ID]bool, len(m.view.Selected))
	for _, r := range m.view.Selected {
		selected[r.ID] = true
	}

	for i, r := range m.view.Records {
		box := UncheckedBox
		if selected[r.ID] {
			box = CheckedBox
		}
		cols := []string{box}
		for _, c := range Columns {
			cols = append(cols, cell(c.Value(r), c.Width))
		}
		line := strings.Join(cols, " ")

		switch {
		case i == m.cursor:
			line = CursorStyle.Render(line)
		case selected[r.ID]:
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.view.Records)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var help []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	footer := DimStyle.Render(strings.Join(help, " · "))

	if m.StatusMsg != "" {
		style := SuccessStyle
		if m.StatusIsErr {
			style = ErrorStyle
		}
		footer = style.Render(m.StatusMsg) + "\n" + footer
	}
	return footer
}
