// Package controller owns the client-visible list state: current page, total,
// search text and sort, and decides when a remote fetch is actually issued.
//
// All state lives on a single event loop goroutine. UI-facing methods post
// events to the loop; fetches run in their own goroutines and report back
// through the loop. Every fetch carries a monotonically increasing sequence
// number and only the highest sequence's response is applied, so a slow stale
// result can never clobber a fresher one.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itsDongki/quicknotes/internal/logger"
	"github.com/itsDongki/quicknotes/internal/model"
	"github.com/itsDongki/quicknotes/internal/notes"
)

// Fetcher is the slice of the access layer the controller drives.
type Fetcher interface {
	List(ctx context.Context, owner string, params notes.ListParams) ([]model.Note, int, error)
	Create(ctx context.Context, owner string, draft model.Draft) (model.Note, error)
	Update(ctx context.Context, id, owner string, patch model.Patch) (model.Note, error)
	Delete(ctx context.Context, id, owner string) error
}

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	Items    []model.Note
	Page     int
	PageSize int
	Total    int

	Search    string
	SortField model.SortField
	SortOrder model.SortOrder

	Loading bool
	Err     string // last operation error, "" when none
}

// TotalPages derives the page count from Total and PageSize.
func (s Snapshot) TotalPages() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Total + s.PageSize - 1) / s.PageSize
}

// queryKey is the (search, sort) tuple used to suppress redundant fetches.
type queryKey struct {
	search string
	field  model.SortField
	order  model.SortOrder
}

// Options configures a Controller.
type Options struct {
	Owner    string
	PageSize int           // default notes.DefaultPageSize
	Debounce time.Duration // default 300ms
	Logger   logger.Logger
	OnChange func(Snapshot) // invoked from the loop goroutine on every state change
}

// Controller mediates between UI events and the access layer.
type Controller struct {
	svc      Fetcher
	owner    string
	debounce time.Duration
	log      logger.Logger
	onChange func(Snapshot)

	events chan func()
	stopCh chan struct{}
	done   chan struct{}

	// Loop-owned. Never touched outside the event loop.
	state      Snapshot
	seq        uint64   // sequence of the newest issued fetch
	lastIssued queryKey // tuple of the newest issued fetch
	timer      *time.Timer

	ctx context.Context // base context for fetches, set by Start

	mu   sync.Mutex
	snap Snapshot // published copy for Snapshot()
}

// New builds a controller for one owner. The owner must be known; without an
// authenticated identity there is nothing to fetch.
func New(svc Fetcher, opts Options) (*Controller, error) {
	if opts.Owner == "" {
		return nil, fmt.Errorf("controller: owner is required")
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = notes.DefaultPageSize
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	return &Controller{
		svc:      svc,
		owner:    opts.Owner,
		debounce: debounce,
		log:      opts.Logger,
		onChange: opts.OnChange,
		events:   make(chan func(), 32),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		state: Snapshot{
			Page:      1,
			PageSize:  pageSize,
			SortField: notes.DefaultSortField,
			SortOrder: notes.DefaultSortOrder,
		},
	}, nil
}

// Start launches the event loop and issues the initial fetch: page 1, default
// sort, empty search.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	go c.loop(ctx)
	c.post(func() { c.startFetch(1) })
}

// Stop terminates the event loop. Outstanding fetch results are discarded.
func (c *Controller) Stop() {
	close(c.stopCh)
	<-c.done
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case ev := <-c.events:
			ev()
		case <-c.stopCh:
			c.stopTimer()
			return
		case <-ctx.Done():
			c.stopTimer()
			return
		}
	}
}

// post hands an event to the loop. Events posted after Stop are dropped.
func (c *Controller) post(ev func()) {
	select {
	case c.events <- ev:
	case <-c.stopCh:
	}
}

// Snapshot returns the latest published state. The items slice is a copy;
// callers may hold or mutate it freely.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snap
	snap.Items = append([]model.Note(nil), c.snap.Items...)
	return snap
}

// SetSearch records a search input change. The text is visible in the
// snapshot immediately, but no fetch is issued until the text has been quiet
// for the debounce window; further changes restart the window.
func (c *Controller) SetSearch(text string) {
	c.post(func() {
		if c.state.Search == text {
			return
		}
		c.state.Search = text
		c.notify()

		c.stopTimer()
		c.timer = time.AfterFunc(c.debounce, func() {
			c.post(c.debouncedFetch)
		})
	})
}

// debouncedFetch fires when the search text has been stable for the debounce
// window. A tuple identical to the newest issued fetch means nothing changed
// and no fetch is needed.
func (c *Controller) debouncedFetch() {
	if c.currentKey() == c.lastIssued {
		return
	}
	c.startFetch(1)
}

// ToggleSort switches to the given field (descending first) or flips the
// direction when the field is already active. Sort changes fetch page 1
// immediately, bypassing the search debounce.
func (c *Controller) ToggleSort(field model.SortField) {
	c.post(func() {
		if c.state.SortField != field {
			c.state.SortField = field
			c.state.SortOrder = model.SortDesc
		} else if c.state.SortOrder == model.SortDesc {
			c.state.SortOrder = model.SortAsc
		} else {
			c.state.SortOrder = model.SortDesc
		}
		c.stopTimer()
		c.startFetch(1)
	})
}

// SetPage fetches the given page with the current search and sort. Range
// checking is the caller's responsibility.
func (c *Controller) SetPage(page int) {
	c.post(func() { c.startFetch(page) })
}

// Refresh refetches the current page.
func (c *Controller) Refresh() {
	c.post(func() { c.startFetch(c.state.Page) })
}

// Create inserts a note and refetches the current page on success, so totals
// and page contents stay authoritative rather than optimistically patched.
func (c *Controller) Create(ctx context.Context, draft model.Draft) (model.Note, error) {
	note, err := c.svc.Create(ctx, c.owner, draft)
	if err != nil {
		c.fail(err)
		return model.Note{}, err
	}
	c.Refresh()
	return note, nil
}

// Update patches a note and refetches the current page on success.
func (c *Controller) Update(ctx context.Context, id string, patch model.Patch) (model.Note, error) {
	note, err := c.svc.Update(ctx, id, c.owner, patch)
	if err != nil {
		c.fail(err)
		return model.Note{}, err
	}
	c.Refresh()
	return note, nil
}

// Delete removes a note and refetches. Removing the last item of the last
// page steps back one page so the view never lands on an empty page.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.svc.Delete(ctx, id, c.owner); err != nil {
		c.fail(err)
		return err
	}
	c.post(func() {
		page := c.state.Page
		if page > 1 && len(c.state.Items) == 1 && page == c.state.TotalPages() {
			page--
		}
		c.startFetch(page)
	})
	return nil
}

// startFetch issues a sequenced list fetch. Must run on the loop.
func (c *Controller) startFetch(page int) {
	c.seq++
	seq := c.seq
	c.lastIssued = c.currentKey()

	params := notes.ListParams{
		Page:       page,
		PageSize:   c.state.PageSize,
		SearchText: c.state.Search,
		SortField:  c.state.SortField,
		SortOrder:  c.state.SortOrder,
	}

	c.state.Loading = true
	c.notify()

	go func() {
		items, total, err := c.svc.List(c.ctx, c.owner, params)
		c.post(func() { c.applyFetch(seq, page, items, total, err) })
	}()
}

// applyFetch applies a fetch result, discarding it when a newer fetch has
// been issued since (last-request-wins).
func (c *Controller) applyFetch(seq uint64, page int, items []model.Note, total int, err error) {
	if seq != c.seq {
		if c.log != nil {
			c.log.Debug("discarding superseded fetch result",
				logger.Uint64("seq", seq),
				logger.Uint64("latest", c.seq))
		}
		return
	}

	c.state.Loading = false
	if err != nil {
		// Keep the stale items visible; a list that fails to refresh beats a
		// blank screen.
		c.state.Err = err.Error()
		if c.log != nil {
			c.log.Warn("list fetch failed", logger.Error(err))
		}
		c.notify()
		return
	}

	c.state.Items = items
	c.state.Page = page
	c.state.Total = total
	c.state.Err = ""
	c.notify()
}

// fail records a mutation error without touching the list.
func (c *Controller) fail(err error) {
	c.post(func() {
		c.state.Err = err.Error()
		c.notify()
	})
}

func (c *Controller) currentKey() queryKey {
	return queryKey{
		search: c.state.Search,
		field:  c.state.SortField,
		order:  c.state.SortOrder,
	}
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// notify publishes the current state and invokes the observer.
func (c *Controller) notify() {
	snap := c.state
	snap.Items = append([]model.Note(nil), c.state.Items...)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(snap)
	}
}
