package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	bulkRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artsel_bulk_select_total",
		Help: "Bulk selection runs by final status",
	}, []string{"status"})

	bulkRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artsel_bulk_selected_records_total",
		Help: "Record identifiers committed by bulk selection",
	})

	bulkPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artsel_bulk_pages_fetched_total",
		Help: "Pages fetched by bulk selection",
	})
)

// PageFetcher fetches a single page of the collection.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, rows int) (*artwork.Page, error)
}

// Config holds bulk selector configuration.
type Config struct {
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns the default bulk selector configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
	}
}

// Status is the final state of a bulk run.
type Status string

const (
	// StatusNoop means nothing was requested and nothing was fetched.
	StatusNoop Status = "noop"

	// StatusCompleted means the run stopped because N ids were selected or
	// the collection was exhausted.
	StatusCompleted Status = "completed"

	// StatusCancelled means the context was cancelled before the run finished.
	StatusCancelled Status = "cancelled"

	// StatusFailed means a fetch or a store write failed. Pages committed
	// before the failure stay selected.
	StatusFailed Status = "failed"
)

// Outcome describes a finished bulk run.
type Outcome struct {
	TaskID string `json:"task_id" yaml:"task_id"`
	Status Status `json:"status" yaml:"status"`

	// Partial is true whenever fewer than Requested ids were selected
	Partial bool `json:"partial" yaml:"partial"`

	// Exhausted is true when the collection ended before Requested ids
	Exhausted bool `json:"exhausted" yaml:"exhausted"`

	Requested int `json:"requested" yaml:"requested"`
	Selected  int `json:"selected" yaml:"selected"`
	Pages     int `json:"pages" yaml:"pages"`
	StartPage int `json:"start_page" yaml:"start_page"`
	Rows      int `json:"rows" yaml:"rows"`

	Err   error  `json:"-" yaml:"-"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BulkSelector selects the first N records from a starting page onwards.
type BulkSelector struct {
	fetcher PageFetcher
	store   selection.Store
	config  Config
	logger  zerolog.Logger
}

// NewBulkSelector creates a new bulk selector.
func NewBulkSelector(fetcher PageFetcher, store selection.Store, config Config, logger zerolog.Logger) *BulkSelector {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BulkSelector{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  logger.With().Str("component", "bulk-selector").Logger(),
	}
}

// Select adds the first n records starting at startPage to the store.
// See SelectTask.
func (b *BulkSelector) Select(ctx context.Context, startPage, rows, n int) Outcome {
	return b.SelectTask(ctx, uuid.NewString(), startPage, rows, n)
}

// SelectTask is Select with a caller-chosen task id.
//
// It fetches at most ceil(n/rows) pages, one at a time, and commits each
// page's share of ids before the next fetch. Nothing committed is rolled back.
func (b *BulkSelector) SelectTask(ctx context.Context, taskID string, startPage, rows, n int) Outcome {
	out := Outcome{
		TaskID:    taskID,
		Requested: n,
		StartPage: startPage,
		Rows:      rows,
	}

	if n <= 0 {
		out.Status = StatusNoop
		return b.finish(out)
	}
	if rows < 1 {
		return b.fail(out, fmt.Errorf("%w (got %d)", ErrInvalidRows, rows))
	}
	if startPage < 1 {
		return b.fail(out, fmt.Errorf("%w: start page %d", ErrInvalidPosition, startPage))
	}

	logger := b.logger.With().Str("task_id", taskID).Logger()
	start := time.Now()
	pagesNeeded := (n + rows - 1) / rows
	acc := newAccumulator(n)

	logger.Info().
		Int("requested", n).
		Int("start_page", startPage).
		Int("rows", rows).
		Int("pages_needed", pagesNeeded).
		Msg("Starting bulk selection")

	for i := 0; i < pagesNeeded; i++ {
		if ctx.Err() != nil {
			return b.cancelled(out, acc, logger)
		}

		pageNum := startPage + i
		pageCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
		page, err := b.fetcher.FetchPage(pageCtx, pageNum, rows)
		cancel()

		if ctx.Err() != nil {
			// The in-flight page is discarded.
			return b.cancelled(out, acc, logger)
		}
		if err != nil {
			out.Selected = acc.taken
			return b.fail(out, fmt.Errorf("bulk select page %d: %w", pageNum, err))
		}
		if page == nil {
			page = &artwork.Page{Number: pageNum}
		}

		out.Pages++
		bulkPagesTotal.Inc()

		ids, next := acc.take(page.Records)
		if len(ids) > 0 {
			if err := b.store.AddMany(context.WithoutCancel(ctx), ids); err != nil {
				out.Selected = acc.taken
				return b.fail(out, fmt.Errorf("bulk select commit page %d: %w", pageNum, err))
			}
			bulkRecordsTotal.Add(float64(len(ids)))
		}
		acc = next

		logger.Debug().
			Int("page", pageNum).
			Int("taken", len(ids)).
			Int("remaining", acc.remaining).
			Msg("Bulk selection page committed")

		if acc.done() {
			break
		}
		if page.IsLast(rows) {
			out.Exhausted = true
			break
		}
	}

	out.Selected = acc.taken
	out.Status = StatusCompleted

	logger.Info().
		Int("selected", out.Selected).
		Int("pages", out.Pages).
		Bool("exhausted", out.Exhausted).
		Dur("duration", time.Since(start)).
		Msg("Bulk selection complete")

	return b.finish(out)
}

func (b *BulkSelector) cancelled(out Outcome, acc accumulator, logger zerolog.Logger) Outcome {
	out.Selected = acc.taken
	out.Status = StatusCancelled
	logger.Info().
		Int("selected", out.Selected).
		Int("pages", out.Pages).
		Msg("Bulk selection cancelled")
	return b.finish(out)
}

func (b *BulkSelector) fail(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	b.logger.Warn().
		Err(err).
		Str("task_id", out.TaskID).
		Int("selected", out.Selected).
		Msg("Bulk selection stopped")
	return b.finish(out)
}

func (b *BulkSelector) finish(out Outcome) Outcome {
	if out.Err != nil {
		out.Error = out.Err.Error()
	}
	out.Partial = out.Status != StatusNoop && out.Selected < out.Requested
	bulkRunsTotal.WithLabelValues(string(out.Status)).Inc()
	return out
}

// IsCancelled reports whether the outcome ended by cancellation.
func (o Outcome) IsCancelled() bool {
	return o.Status == StatusCancelled || errors.Is(o.Err, context.Canceled)
}
