package tui

import (
	"context"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/Sternrassler/artsel/internal/testutil"
	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/selection"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
)

func newTestModel(t *testing.T, total int) (Model, *controller.Controller, *testutil.Fetcher) {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	fetcher := testutil.NewFetcher(total)
	ctrl := controller.New(fetcher, selection.NewMemoryStore(), controller.DefaultConfig(), logger)
	t.Cleanup(func() { ctrl.Close() })

	m := New(ctrl)
	m = feed(t, m, ReloadCmd(ctrl)())
	return m, ctrl, fetcher
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// feed applies msg and then every controller message its commands produce.
// Spinner ticks and cursor blinks are dropped.
func feed(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		updated, cmd := m.Update(next)
		m = updated.(Model)
		queue = append(queue, controllerMsgs(cmd)...)
	}
	return m
}

func controllerMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, controllerMsgs(c)...)
		}
		return out
	case ViewLoadedMsg, BulkDoneMsg, ErrMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func TestModel_InitialLoad(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)

	v := m.CurrentView()
	if v.Page != 1 || len(v.Records) != 12 {
		t.Errorf("view page %d with %d records, want 1 with 12", v.Page, len(v.Records))
	}
	if m.Busy() {
		t.Error("Busy() = true after load")
	}
	if !slices.Equal(fetcher.Calls(), []int{1}) {
		t.Errorf("fetched %v, want [1]", fetcher.Calls())
	}
}

func TestModel_Init(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	ctrl := controller.New(testutil.NewFetcher(5), selection.NewMemoryStore(), controller.DefaultConfig(), logger)
	defer ctrl.Close()

	if New(ctrl).Init() == nil {
		t.Error("Init() returned nil, want load command")
	}
}

func TestModel_Paging(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)

	m = feed(t, m, runes("h"))
	if len(fetcher.Calls()) != 1 {
		t.Errorf("prev on first page fetched %v", fetcher.Calls())
	}

	m = feed(t, m, runes("l"))
	if m.CurrentView().Page != 2 {
		t.Fatalf("page = %d after next, want 2", m.CurrentView().Page)
	}

	m = feed(t, m, runes("l"))
	if m.CurrentView().Page != 3 || len(m.CurrentView().Records) != 6 {
		t.Fatalf("page %d with %d records, want 3 with 6", m.CurrentView().Page, len(m.CurrentView().Records))
	}

	m = feed(t, m, runes("l"))
	if m.CurrentView().Page != 3 {
		t.Errorf("next on last page moved to %d", m.CurrentView().Page)
	}

	m = feed(t, m, runes("h"))
	if m.CurrentView().Page != 2 {
		t.Errorf("page = %d after prev, want 2", m.CurrentView().Page)
	}

	if !slices.Equal(fetcher.Calls(), []int{1, 2, 3, 2}) {
		t.Errorf("fetched %v, want [1 2 3 2]", fetcher.Calls())
	}
}

func TestModel_RowsChange(t *testing.T) {
	m, _, _ := newTestModel(t, 100)

	m = feed(t, m, runes("+"))
	if v := m.CurrentView(); v.Rows != 24 || len(v.Records) != 24 {
		t.Errorf("rows %d records %d, want 24 24", v.Rows, len(v.Records))
	}
	m = feed(t, m, runes("-"))
	if v := m.CurrentView(); v.Rows != 12 {
		t.Errorf("rows %d, want 12", v.Rows)
	}
	m = feed(t, m, runes("-"))
	if v := m.CurrentView(); v.Rows != 12 {
		t.Errorf("rows %d, want 12 (minimum)", v.Rows)
	}
}

func TestModel_ToggleRow(t *testing.T) {
	m, ctrl, fetcher := newTestModel(t, 30)
	ctx := context.Background()

	m = feed(t, m, runes("j"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})

	want := fetcher.IDs(1, 2)
	if got := m.CurrentView().SelectedIDs(); !slices.Equal(got, want) {
		t.Fatalf("visible selection = %v, want %v", got, want)
	}

	m = feed(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	if got := m.CurrentView().SelectedIDs(); len(got) != 0 {
		t.Errorf("visible selection = %v after second toggle, want empty", got)
	}

	all, _ := ctrl.Selection(ctx)
	if all.Len() != 0 {
		t.Errorf("selection size = %d, want 0", all.Len())
	}
}

func TestModel_ToggleAll(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)

	m = feed(t, m, runes("a"))
	if got, want := m.CurrentView().SelectedIDs(), fetcher.IDs(0, 12); !slices.Equal(got, want) {
		t.Fatalf("visible selection = %v, want whole page", got)
	}

	m = feed(t, m, runes("a"))
	if got := m.CurrentView().SelectedIDs(); len(got) != 0 {
		t.Errorf("visible selection = %v, want empty", got)
	}
}

func TestModel_ToggleIgnoredWhilePageLoads(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 30)

	updated, _ := m.Update(runes("l"))
	m = updated.(Model)
	if !m.Busy() {
		t.Fatal("Busy() = false with a page change outstanding")
	}

	for _, msg := range []tea.KeyMsg{{Type: tea.KeySpace, Runes: []rune(" ")}, runes("a")} {
		updated, cmd := m.Update(msg)
		m = updated.(Model)
		if cmd != nil {
			t.Errorf("key %q during page load returned a command", msg.String())
		}
	}

	all, _ := ctrl.Selection(context.Background())
	if all.Len() != 0 {
		t.Errorf("selection size = %d, want 0", all.Len())
	}
}

func TestModel_SelectNOverlay(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)

	m = feed(t, m, runes("s"))
	if m.Overlay().State() != OverlayOpen {
		t.Fatalf("overlay = %s, want open", m.Overlay().State())
	}

	// Empty submit is ignored
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Overlay().IsOpen() {
		t.Fatal("empty submit closed the overlay")
	}

	m = feed(t, m, runes("1"))
	m = feed(t, m, runes("5"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Overlay().IsOpen() {
		t.Error("overlay still open after submit")
	}
	v := m.CurrentView()
	if v.SelectedTotal != 15 {
		t.Errorf("SelectedTotal = %d, want 15", v.SelectedTotal)
	}
	if v.LastBulk == nil || v.LastBulk.Status != pagination.StatusCompleted {
		t.Errorf("LastBulk = %+v, want completed", v.LastBulk)
	}
	if m.StatusMsg != "Selected 15 records" || m.StatusIsErr {
		t.Errorf("status = %q (err %v)", m.StatusMsg, m.StatusIsErr)
	}
	if !slices.Equal(fetcher.Calls(), []int{1, 1, 2}) {
		t.Errorf("fetched %v, want [1 1 2]", fetcher.Calls())
	}
}

func TestModel_SelectNOverlayEscape(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)

	m = feed(t, m, runes("s"))
	m = feed(t, m, runes("7"))
	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.Overlay().IsOpen() {
		t.Error("overlay open after esc")
	}
	if len(fetcher.Calls()) != 1 {
		t.Errorf("fetched %v after cancelled overlay", fetcher.Calls())
	}

	// Keys go back to the table once closed
	m = feed(t, m, runes("l"))
	if m.CurrentView().Page != 2 {
		t.Errorf("page = %d, want 2", m.CurrentView().Page)
	}
}

func TestSelectOverlay_Update(t *testing.T) {
	keys := DefaultKeyMap()

	tests := []struct {
		name          string
		input         string
		wantSubmitted bool
		wantCount     int
		wantOpen      bool
		wantErr       bool
	}{
		{"valid", "12", true, 12, false, false},
		{"minimum", "1", true, 1, false, false},
		{"zero", "0", false, 0, true, true},
		{"not a number", "abc", false, 0, true, true},
		{"empty", "", false, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewSelectOverlay()
			o.Open()
			for _, r := range tt.input {
				o, _, _, _ = o.Update(runes(string(r)), keys)
			}

			o, _, n, submitted := o.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys)

			if submitted != tt.wantSubmitted || n != tt.wantCount {
				t.Errorf("Update() = %d, %v, want %d, %v", n, submitted, tt.wantCount, tt.wantSubmitted)
			}
			if o.IsOpen() != tt.wantOpen {
				t.Errorf("IsOpen() = %v, want %v", o.IsOpen(), tt.wantOpen)
			}
			if (o.err != "") != tt.wantErr {
				t.Errorf("err = %q, wantErr %v", o.err, tt.wantErr)
			}
		})
	}
}

func TestSelectOverlay_ClosedIgnoresInput(t *testing.T) {
	o := NewSelectOverlay()
	o, cmd, n, submitted := o.Update(tea.KeyMsg{Type: tea.KeyEnter}, DefaultKeyMap())
	if cmd != nil || n != 0 || submitted || o.IsOpen() {
		t.Error("closed overlay reacted to input")
	}
	if o.View() != "" {
		t.Error("closed overlay rendered content")
	}

	o.Toggle()
	if o.State() != OverlayOpen || o.State().String() != "open" {
		t.Errorf("Toggle() state = %s, want open", o.State())
	}
	o.Toggle()
	if o.State() != OverlayClosed {
		t.Errorf("Toggle() state = %s, want closed", o.State())
	}
}

func TestModel_Render(t *testing.T) {
	m, _, _ := newTestModel(t, 30)
	m = feed(t, m, runes("a"))

	out := m.View()
	for _, want := range []string{"Title", "Place of Origin", "Artist", "Inscriptions", "Start Date", "End Date", "Artwork 1", CheckedBox, "page 1 of 3", "12 selected"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_RenderEmpty(t *testing.T) {
	m, _, _ := newTestModel(t, 0)

	if out := m.View(); !strings.Contains(out, EmptyMessage) {
		t.Errorf("View() = %q, want empty message", out)
	}

	// Toggles on an empty page do nothing
	m = feed(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = feed(t, m, runes("a"))
	if m.CurrentView().SelectedTotal != 0 {
		t.Error("toggle on empty page selected something")
	}
}

func TestModel_ErrorStatus(t *testing.T) {
	m, _, fetcher := newTestModel(t, 30)
	fetcher.FailPage(2, os.ErrDeadlineExceeded)

	m = feed(t, m, runes("l"))

	if !m.StatusIsErr || !strings.HasPrefix(m.StatusMsg, "Error") {
		t.Errorf("status = %q (err %v), want page change error", m.StatusMsg, m.StatusIsErr)
	}
	if got := artwork.IDsOf(m.CurrentView().Records); !slices.Equal(got, fetcher.IDs(0, 12)) {
		t.Error("previous records not kept after failed page change")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, 5)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key did not return tea.Quit")
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"multi\nline  text", 15, "multi line text"},
		{"", 3, "   "},
	}

	for _, tt := range tests {
		if got := cell(tt.in, tt.width); got != tt.want {
			t.Errorf("cell(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}

	// Wide runes count two cells
	if got := runewidth.StringWidth(cell("日本語の題名", 7)); got != 7 {
		t.Errorf("cell width of wide title = %d, want 7", got)
	}
}

func TestToggleID(t *testing.T) {
	ids := []artwork.ID{1, 2, 3}
	if got := toggleID(ids, 2); !slices.Equal(got, []artwork.ID{1, 3}) {
		t.Errorf("toggleID remove = %v", got)
	}
	if got := toggleID(ids, 4); !slices.Equal(got, []artwork.ID{1, 2, 3, 4}) {
		t.Errorf("toggleID add = %v", got)
	}
	if !slices.Equal(ids, []artwork.ID{1, 2, 3}) {
		t.Error("toggleID mutated input")
	}
}
