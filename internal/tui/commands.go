package tui

import (
	"context"
	"time"

	"github.com/Sternrassler/artsel/pkg/artwork"
	tea "github.com/charmbracelet/bubbletea"
)

// Command factories for controller calls. Each returns the fresh view (or
// outcome) as a message so Update never blocks on the network.

const callTimeout = 60 * time.Second

// ViewCmd renders the controller state without fetching
func ViewCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return viewMsg(ctx, ctrl, "rendering view")
	}
}

// ReloadCmd refetches the current page
func ReloadCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := ctrl.Reload(ctx); err != nil {
			return ErrMsg{Err: err, Context: "loading page"}
		}
		return viewMsg(ctx, ctrl, "rendering view")
	}
}

// PageChangeCmd moves to the page containing record index first
func PageChangeCmd(ctrl Controller, first, rows int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := ctrl.OnPageChange(ctx, first, rows); err != nil {
			return ErrMsg{Err: err, Context: "changing page"}
		}
		return viewMsg(ctx, ctrl, "rendering view")
	}
}

// SelectionChangeCmd reports the selection of the rendered page after a toggle
func SelectionChangeCmd(ctrl Controller, pageIDs, ids []artwork.ID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if _, err := ctrl.OnSelectionChange(ctx, pageIDs, ids); err != nil {
			return ErrMsg{Err: err, Context: "updating selection"}
		}
		return viewMsg(ctx, ctrl, "rendering view")
	}
}

// SelectCountCmd runs a bulk selection of n records
func SelectCountCmd(ctrl Controller, n int) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.SelectCount(context.Background(), n)
		if err != nil {
			return ErrMsg{Err: err, Context: "selecting records"}
		}
		return BulkDoneMsg{Outcome: outcome}
	}
}

func viewMsg(ctx context.Context, ctrl Controller, what string) tea.Msg {
	v, err := ctrl.View(ctx)
	if err != nil {
		return ErrMsg{Err: err, Context: what}
	}
	return ViewLoadedMsg{View: v}
}
