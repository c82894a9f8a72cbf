package tui

import (
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/pagination"
)

// ViewLoadedMsg carries a fresh render output from the controller
type ViewLoadedMsg struct {
	View controller.View
}

// BulkDoneMsg is sent when a select-N run finished
type BulkDoneMsg struct {
	Outcome pagination.Outcome
}

// ErrMsg reports a failed controller call
type ErrMsg struct {
	Err     error
	Context string
}
