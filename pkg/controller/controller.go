// Package controller owns the collection view: the loaded page, the
// pagination position, the loading indicator and the selection store.
//
// Presentation layers call the event methods (OnPageChange,
// OnSelectionChange, SelectCount) and render View. The controller never holds
// its lock across a fetch, so View stays responsive while a page or a bulk
// selection is loading.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by event methods after Close.
var ErrClosed = errors.New("controller closed")

// Config holds controller configuration.
type Config struct {
	// Rows is the initial page size (default: pagination.DefaultRows)
	Rows int

	// Page is the initial 1-based page (default: 1)
	Page int

	// Bulk configures the bulk selector
	Bulk pagination.Config
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Rows: pagination.DefaultRows,
		Page: 1,
		Bulk: pagination.DefaultConfig(),
	}
}

// View is what a presentation layer renders.
type View struct {
	Records      []artwork.Artwork `json:"records"`
	Loading      bool              `json:"loading"`
	TotalRecords int               `json:"total_records"`
	Page         int               `json:"page"`
	Rows         int               `json:"rows"`
	FirstIndex   int               `json:"first_index"`

	// Selected is the visible selection: loaded records that are selected
	Selected []artwork.Artwork `json:"selected"`

	// SelectedTotal is the size of the whole selection
	SelectedTotal int `json:"selected_total"`

	// Err is the error of the last reload, nil after a successful one
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	LastBulk *pagination.Outcome `json:"last_bulk,omitempty"`
}

// SelectedIDs returns the identifiers of the visible selection.
func (v View) SelectedIDs() []artwork.ID {
	return artwork.IDsOf(v.Selected)
}

// PageIDs returns the identifiers of the rendered records, in page order.
// A selection report built from this view passes them to OnSelectionChange.
func (v View) PageIDs() []artwork.ID {
	return artwork.IDsOf(v.Records)
}

type bulkTask struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller coordinates fetching, pagination and selection.
type Controller struct {
	fetcher pagination.PageFetcher
	store   selection.Store
	bulk    *pagination.BulkSelector
	logger  zerolog.Logger

	mu           sync.Mutex
	state        pagination.State
	records      []artwork.Artwork
	err          error
	pending      int
	generation   uint64
	reloadCancel context.CancelFunc
	task         *bulkTask
	lastBulk     *pagination.Outcome
	closed       bool
}

// New creates a controller. It does not fetch; call Reload for the first page.
func New(fetcher pagination.PageFetcher, store selection.Store, cfg Config, logger zerolog.Logger) *Controller {
	if fetcher == nil {
		panic("controller: fetcher cannot be nil")
	}
	if store == nil {
		panic("controller: store cannot be nil")
	}

	state := pagination.NewState(cfg.Rows)
	if cfg.Page > 1 {
		state.Page = cfg.Page
	}

	return &Controller{
		fetcher: fetcher,
		store:   store,
		bulk:    pagination.NewBulkSelector(fetcher, store, cfg.Bulk, logger),
		logger:  logger.With().Str("component", "controller").Logger(),
		state:   state,
		records: []artwork.Artwork{},
	}
}

// State returns the current pagination position.
func (c *Controller) State() pagination.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reload fetches the page at the current position.
//
// A newer Reload supersedes an older one: the older fetch is cancelled and
// its response discarded (it returns nil). On failure the previous records
// stay loaded and the error is kept for View.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.reloadCancel != nil {
		c.reloadCancel()
	}
	c.generation++
	gen := c.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	c.reloadCancel = cancel
	c.pending++
	state := c.state
	c.mu.Unlock()

	page, err := c.fetcher.FetchPage(fetchCtx, state.Page, state.Rows)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--

	if gen != c.generation {
		c.logger.Debug().
			Int("page", state.Page).
			Uint64("generation", gen).
			Msg("Discarding superseded page response")
		return nil
	}
	c.reloadCancel = nil

	if err != nil {
		c.err = err
		c.logger.Warn().
			Err(err).
			Int("page", state.Page).
			Int("rows", state.Rows).
			Msg("Page reload failed")
		return err
	}

	c.err = nil
	c.records = page.Records
	if c.records == nil {
		c.records = []artwork.Artwork{}
	}
	c.state.TotalRecords = page.Total

	c.logger.Debug().
		Int("page", state.Page).
		Int("rows", state.Rows).
		Int("records", len(page.Records)).
		Int("total", page.Total).
		Msg("Page loaded")

	return nil
}

// OnPageChange moves the view to the page containing record index first
// with rowsPerPage rows. It reloads only when page or rows change and cancels
// any in-flight bulk selection when it does.
func (c *Controller) OnPageChange(ctx context.Context, first, rowsPerPage int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	next, changed, err := c.state.FromEvent(first, rowsPerPage)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if !changed {
		c.mu.Unlock()
		return nil
	}
	c.state = next
	if c.task != nil {
		c.logger.Info().
			Str("task_id", c.task.id).
			Msg("Cancelling bulk selection on page change")
		c.task.cancel()
	}
	c.mu.Unlock()

	return c.Reload(ctx)
}

// OnSelectionChange reconciles a selection report from the display.
//
// pageIDs are the ids of the page the display rendered (View.PageIDs), not
// the page loaded when the report arrives; a page change may land in
// between. Only pageIDs are added or removed.
func (c *Controller) OnSelectionChange(ctx context.Context, pageIDs, visibleSelected []artwork.ID) (selection.Diff, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return selection.Diff{}, ErrClosed
	}

	diff, err := selection.Reconcile(ctx, c.store, pageIDs, visibleSelected)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Selection reconcile failed")
		return diff, err
	}
	return diff, nil
}

// SelectCount selects the first n records from the current page onwards.
//
// n <= 0 is a no-op. A running bulk selection is cancelled and awaited
// before the new one starts. Fetch and store failures are reported in the
// Outcome; the error return is only ErrClosed.
func (c *Controller) SelectCount(ctx context.Context, n int) (pagination.Outcome, error) {
	c.mu.Lock()
	for {
		if c.closed {
			c.mu.Unlock()
			return pagination.Outcome{}, ErrClosed
		}
		prev := c.task
		if prev == nil {
			break
		}
		prev.cancel()
		c.mu.Unlock()
		<-prev.done
		c.mu.Lock()
	}

	state := c.state
	if n <= 0 {
		c.mu.Unlock()
		return pagination.Outcome{
			Status:    pagination.StatusNoop,
			Requested: n,
			StartPage: state.Page,
			Rows:      state.Rows,
		}, nil
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &bulkTask{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.task = task
	c.pending++
	c.mu.Unlock()

	outcome := c.bulk.SelectTask(taskCtx, task.id, state.Page, state.Rows, n)
	cancel()

	c.mu.Lock()
	c.pending--
	if c.task == task {
		c.task = nil
	}
	c.lastBulk = &outcome
	c.mu.Unlock()
	close(task.done)

	return outcome, nil
}

// View returns the current render output.
func (c *Controller) View(ctx context.Context) (View, error) {
	c.mu.Lock()
	state := c.state
	records := append([]artwork.Artwork{}, c.records...)
	loadErr := c.err
	loading := c.pending > 0
	var lastBulk *pagination.Outcome
	if c.lastBulk != nil {
		out := *c.lastBulk
		lastBulk = &out
	}
	c.mu.Unlock()

	selected, err := selection.Visible(ctx, c.store, records)
	if err != nil {
		return View{}, err
	}
	total, err := c.store.Len(ctx)
	if err != nil {
		return View{}, err
	}

	v := View{
		Records:       records,
		Loading:       loading,
		TotalRecords:  state.TotalRecords,
		Page:          state.Page,
		Rows:          state.Rows,
		FirstIndex:    state.FirstIndex(),
		Selected:      selected,
		SelectedTotal: total,
		Err:           loadErr,
		LastBulk:      lastBulk,
	}
	if loadErr != nil {
		v.Error = loadErr.Error()
	}
	return v, nil
}

// Selection returns a snapshot of every selected id.
func (c *Controller) Selection(ctx context.Context) (selection.Set, error) {
	return c.store.All(ctx)
}

// Close cancels in-flight work and waits for a running bulk selection to
// stop. Event methods return ErrClosed afterwards; View keeps working.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.reloadCancel != nil {
		c.reloadCancel()
	}
	task := c.task
	if task != nil {
		task.cancel()
	}
	c.mu.Unlock()

	if task != nil {
		<-task.done
	}
	c.logger.Debug().Msg("Controller closed")
	return nil
}
