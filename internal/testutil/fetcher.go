package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/artsel/pkg/artwork"
)

// Fetcher is an in-process page fetcher over generated records. It satisfies
// pagination.PageFetcher without a network round trip.
type Fetcher struct {
	mu      sync.Mutex
	records []artwork.Artwork
	fail    map[int]error
	hook    func(ctx context.Context, page int)
	calls   []int
}

// NewFetcher returns a fetcher serving total generated records.
func NewFetcher(total int) *Fetcher {
	return &Fetcher{
		records: MakeArtworks(total),
		fail:    make(map[int]error),
	}
}

// FailPage makes fetches of page return err.
func (f *Fetcher) FailPage(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[page] = err
}

// SetHook installs a function called before each page is returned. It may
// block; a fetch whose context is done afterwards returns the context error.
func (f *Fetcher) SetHook(hook func(ctx context.Context, page int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

// Calls returns the requested page numbers in order.
func (f *Fetcher) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// IDs returns the identifiers of records [from, to) in server order.
func (f *Fetcher) IDs(from, to int) []artwork.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if to > len(f.records) {
		to = len(f.records)
	}
	if from >= to {
		return []artwork.ID{}
	}
	return artwork.IDsOf(f.records[from:to])
}

// FetchPage returns page of size rows.
func (f *Fetcher) FetchPage(ctx context.Context, page, rows int) (*artwork.Page, error) {
	if page < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid page request (page=%d, rows=%d)", page, rows)
	}

	f.mu.Lock()
	f.calls = append(f.calls, page)
	hook := f.hook
	err := f.fail[page]
	total := len(f.records)
	offset := (page - 1) * rows
	records := []artwork.Artwork{}
	if offset < total {
		end := min(offset+rows, total)
		records = append(records, f.records[offset:end]...)
	}
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, page)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	return &artwork.Page{
		Records:    records,
		Number:     page,
		Limit:      rows,
		Total:      total,
		TotalPages: (total + rows - 1) / rows,
	}, nil
}
