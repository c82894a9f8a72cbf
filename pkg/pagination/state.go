package pagination

import (
	"errors"
	"fmt"
)

// DefaultRows is the page size of a new view.
const DefaultRows = 12

var (
	// ErrInvalidPosition is returned for a negative first index or rows < 1.
	ErrInvalidPosition = errors.New("invalid pagination position")

	// ErrInvalidRows is returned for a bulk selection with rows < 1.
	ErrInvalidRows = errors.New("rows per page must be >= 1")
)

// State is the position of the view in the collection.
// Page and Rows are always >= 1.
type State struct {
	// Page is the 1-based page number
	Page int `json:"page"`

	// Rows is the page size
	Rows int `json:"rows"`

	// TotalRecords is the collection size reported by the last fetch
	TotalRecords int `json:"total_records"`
}

// NewState returns a State at page 1. rows < 1 falls back to DefaultRows.
func NewState(rows int) State {
	if rows < 1 {
		rows = DefaultRows
	}
	return State{Page: 1, Rows: rows}
}

// FirstIndex is the 0-based index of the first record on the page.
func (s State) FirstIndex() int {
	return (s.Page - 1) * s.Rows
}

// TotalPages is the page count implied by TotalRecords and Rows.
func (s State) TotalPages() int {
	if s.Rows < 1 {
		return 0
	}
	return (s.TotalRecords + s.Rows - 1) / s.Rows
}

// FromEvent returns the State a paginator event moves to.
// changed is false when neither page nor rows differ, in which case no fetch
// is needed. TotalRecords carries over.
func (s State) FromEvent(first, rows int) (next State, changed bool, err error) {
	if first < 0 || rows < 1 {
		return s, false, fmt.Errorf("%w: first=%d rows=%d", ErrInvalidPosition, first, rows)
	}
	next = s
	next.Page = first/rows + 1
	next.Rows = rows
	return next, next.Page != s.Page || next.Rows != s.Rows, nil
}
