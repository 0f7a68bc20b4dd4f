package listing

import "context"

// Fetcher loads one page of a list endpoint
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

// Pending is an issued fetch that has not been applied yet
type Pending[T any] struct {
	Generation uint64
	Query      Query
	fetch      Fetcher[T]
}

// Do runs the fetch. It does not touch the controller and may run on any goroutine.
func (p *Pending[T]) Do(ctx context.Context) Result[T] {
	page, err := p.fetch(ctx, p.Query)
	return Result[T]{
		Generation: p.Generation,
		Query:      p.Query,
		Page:       page,
		Err:        err,
	}
}

// Result is the outcome of a Pending fetch
type Result[T any] struct {
	Generation uint64
	Query      Query
	Page       Page[T]
	Err        error
}

// Controller holds the page, search and row state of one list screen
type Controller[T any] struct {
	fetch      Fetcher[T]
	state      State
	rows       []T
	generation uint64
	inflight   bool
	loaded     bool
	err        error
}

// NewController creates a controller on page 1. A non-positive limit falls
// back to DefaultLimit.
func NewController[T any](fetch Fetcher[T], limit int) *Controller[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Controller[T]{
		fetch: fetch,
		state: State{Page: 1, Limit: limit},
	}
}

// State returns a copy of the current list state
func (c *Controller[T]) State() State { return c.state }

// Rows returns the rows of the last applied successful fetch
func (c *Controller[T]) Rows() []T { return c.rows }

// Err returns the error of the last applied fetch, nil after a success
func (c *Controller[T]) Err() error { return c.err }

// Loading reports whether the most recently issued fetch is still outstanding
func (c *Controller[T]) Loading() bool { return c.inflight }

// Loaded reports whether any fetch has succeeded yet
func (c *Controller[T]) Loaded() bool { return c.loaded }

// Generation returns the generation of the most recently issued fetch
func (c *Controller[T]) Generation() uint64 { return c.generation }

// Load issues the fetch for the current state. Screens call it once on open.
func (c *Controller[T]) Load() *Pending[T] {
	return c.issue()
}

// SetSearch replaces the search term and goes back to page 1
func (c *Controller[T]) SetSearch(term string) *Pending[T] {
	c.state.Search = term
	c.state.Page = 1
	return c.issue()
}

// Seek jumps straight to page with the given search term. Pages below 1 are
// treated as 1; a page past the end is clamped once the result arrives.
func (c *Controller[T]) Seek(page int, search string) *Pending[T] {
	c.state.Search = search
	c.state.Page = max(page, 1)
	return c.issue()
}

// NextPage advances one page. At the last page it is a no-op and returns false.
func (c *Controller[T]) NextPage() (*Pending[T], bool) {
	if !c.state.HasNext() {
		return nil, false
	}
	c.state.Page++
	return c.issue(), true
}

// PrevPage goes back one page. On page 1 it is a no-op and returns false.
func (c *Controller[T]) PrevPage() (*Pending[T], bool) {
	if !c.state.HasPrev() {
		return nil, false
	}
	c.state.Page--
	return c.issue(), true
}

// Refresh re-issues the current query without changing any state
func (c *Controller[T]) Refresh() *Pending[T] {
	return c.issue()
}

func (c *Controller[T]) issue() *Pending[T] {
	c.generation++
	c.inflight = true
	return &Pending[T]{
		Generation: c.generation,
		Query:      c.state.query(),
		fetch:      c.fetch,
	}
}

// Apply folds a result into the controller. Results from superseded
// generations are dropped and Apply returns false. A failed fetch keeps the
// previous rows and counts. When the server reports fewer pages than the
// current page, the page is clamped and a follow-up fetch is returned.
func (c *Controller[T]) Apply(r Result[T]) (bool, *Pending[T]) {
	if r.Generation != c.generation {
		return false, nil
	}
	c.inflight = false

	if r.Err != nil {
		c.err = r.Err
		return true, nil
	}

	c.err = nil
	c.loaded = true
	c.rows = r.Page.Rows
	c.state.Total = r.Page.Total
	c.state.Pages = r.Page.Pages

	if last := max(c.state.Pages, 1); c.state.Page > last {
		c.state.Page = last
		return true, c.issue()
	}
	return true, nil
}

// Run executes p and applies the result, following clamp re-fetches.
// It returns the fetch error when the applied result failed.
func (c *Controller[T]) Run(ctx context.Context, p *Pending[T]) error {
	for p != nil {
		res := p.Do(ctx)
		applied, follow := c.Apply(res)
		if applied && res.Err != nil {
			return res.Err
		}
		p = follow
	}
	return nil
}
