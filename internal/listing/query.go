// Package listing coordinates paginated, searchable list state for a screen.
//
// A Controller owns page/limit/search and the rows of the last successful
// fetch. Every state change issues a Pending fetch tagged with a generation;
// results are applied only when their generation is still the latest one, so
// the last request issued wins regardless of the order responses arrive in.
//
// Controllers are not safe for concurrent use. Mutate them from one goroutine
// (the UI event loop) and run Pending.Do anywhere.
package listing

import (
	"net/url"
	"strconv"
)

// DefaultLimit is the page size used by every admin screen
const DefaultLimit = 20

// Query is the parameter snapshot sent to a list endpoint
type Query struct {
	Page   int
	Limit  int
	Search string
}

// Values encodes the query for a URL. Search is omitted when empty.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Page is one page of rows plus the server's counts
type Page[T any] struct {
	Rows  []T
	Total int
	Pages int
}

// SinglePage wraps an unpaginated result as page 1 of 1
func SinglePage[T any](rows []T) Page[T] {
	pages := 1
	if len(rows) == 0 {
		pages = 0
	}
	return Page[T]{Rows: rows, Total: len(rows), Pages: pages}
}

// State is the list state visible to views
type State struct {
	Page   int
	Limit  int
	Total  int
	Pages  int
	Search string
}

// Range returns the 1-based positions of the first and last row on the
// current page, or 0, 0 when the list is empty
func (s State) Range() (from, to int) {
	if s.Total == 0 {
		return 0, 0
	}
	from = (s.Page-1)*s.Limit + 1
	to = s.Page * s.Limit
	if to > s.Total {
		to = s.Total
	}
	if from > to {
		return 0, 0
	}
	return from, to
}

// HasNext reports whether NextPage would issue a fetch
func (s State) HasNext() bool { return s.Page < s.Pages }

// HasPrev reports whether PrevPage would issue a fetch
func (s State) HasPrev() bool { return s.Page > 1 }

func (s State) query() Query {
	return Query{Page: s.Page, Limit: s.Limit, Search: s.Search}
}
