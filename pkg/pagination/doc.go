// Package pagination holds the pagination position of the collection view and
// the bulk selector that selects records across pages.
//
// State is the 1-based page and page size the view shows. It is a value type;
// FromEvent derives the next State from a paginator event (first index and
// rows per page) and reports whether a fetch is needed.
//
// BulkSelector selects the first N records starting at a page. It fetches
// ceil(N/rows) pages sequentially in server order and commits each page's
// identifiers to a selection.Store before fetching the next one:
//
//	bulk := pagination.NewBulkSelector(client, store, pagination.DefaultConfig(), logger)
//	outcome := bulk.Select(ctx, 3, 12, 30)
//	// pages 3, 4 and 5 fetched, 30 ids added
//
// The selector:
//   - never fetches for N <= 0
//   - stops early when the collection is exhausted
//   - stops on the first fetch error and keeps what was already committed
//   - checks the context before every fetch and discards a page whose fetch
//     was in flight when the context was cancelled
package pagination
