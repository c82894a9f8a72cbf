package selection

import (
	"context"
	"fmt"

	"github.com/Sternrassler/artsel/pkg/artwork"
)

// Diff is the membership a Reconcile call asserted for one page.
type Diff struct {
	Added   []artwork.ID
	Removed []artwork.ID
}

// Reconcile applies a page-local selection report to store.
//
// pageIDs are the identifiers of the currently loaded page; reported are the
// identifiers the display says are selected now. Page ids in reported are
// added, page ids missing from reported are removed. Identifiers outside
// pageIDs are never touched, including reported ids that are not on the page.
func Reconcile(ctx context.Context, store Store, pageIDs, reported []artwork.ID) (Diff, error) {
	selected := NewSet(reported...)

	var diff Diff
	for _, id := range pageIDs {
		if selected.Has(id) {
			diff.Added = append(diff.Added, id)
		} else {
			diff.Removed = append(diff.Removed, id)
		}
	}

	if len(diff.Added) > 0 {
		if err := store.AddMany(ctx, diff.Added); err != nil {
			return Diff{}, fmt.Errorf("reconcile add: %w", err)
		}
	}
	if len(diff.Removed) > 0 {
		if err := store.RemoveMany(ctx, diff.Removed); err != nil {
			return Diff{Added: diff.Added}, fmt.Errorf("reconcile remove: %w", err)
		}
	}
	return diff, nil
}

// Visible returns the records whose id is in store, in page order.
// It costs one HasMany per call, linear in the page size.
func Visible(ctx context.Context, store Store, records []artwork.Artwork) ([]artwork.Artwork, error) {
	if len(records) == 0 {
		return []artwork.Artwork{}, nil
	}
	flags, err := store.HasMany(ctx, artwork.IDsOf(records))
	if err != nil {
		return nil, fmt.Errorf("visible selection: %w", err)
	}
	out := make([]artwork.Artwork, 0, len(records))
	for i, r := range records {
		if flags[i] {
			out = append(out, r)
		}
	}
	return out, nil
}
