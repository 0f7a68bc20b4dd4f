package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeBackend serves pages of ints and records every query it sees
type fakeBackend struct {
	total   int
	failFn  func(q Query) error
	queries []Query
}

func (b *fakeBackend) fetch(ctx context.Context, q Query) (Page[int], error) {
	b.queries = append(b.queries, q)
	if b.failFn != nil {
		if err := b.failFn(q); err != nil {
			return Page[int]{}, err
		}
	}
	pages := (b.total + q.Limit - 1) / q.Limit
	var rows []int
	for i := (q.Page - 1) * q.Limit; i < q.Page*q.Limit && i < b.total; i++ {
		rows = append(rows, i)
	}
	return Page[int]{Rows: rows, Total: b.total, Pages: pages}, nil
}

func loaded(t *testing.T, b *fakeBackend) *Controller[int] {
	t.Helper()
	c := NewController(b.fetch, 20)
	if err := c.Run(context.Background(), c.Load()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return c
}

func TestNextPageStopsAtLastPage(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := loaded(t, b)

	if st := c.State(); st.Pages != 3 || st.Total != 45 {
		t.Fatalf("State = %+v, want 3 pages of 45", st)
	}

	ctx := context.Background()
	for _, want := range []int{2, 3} {
		p, ok := c.NextPage()
		if !ok {
			t.Fatalf("NextPage to %d should issue a fetch", want)
		}
		if p.Query.Page != want {
			t.Errorf("Query.Page = %d, want %d", p.Query.Page, want)
		}
		c.Run(ctx, p)
	}

	if p, ok := c.NextPage(); ok || p != nil {
		t.Error("NextPage on the last page should be a no-op")
	}
	if c.State().Page != 3 {
		t.Errorf("Page = %d, want 3", c.State().Page)
	}
	if len(b.queries) != 3 {
		t.Errorf("backend saw %d queries, want 3", len(b.queries))
	}
	if rows := c.Rows(); len(rows) != 5 || rows[0] != 40 {
		t.Errorf("last page rows = %v", rows)
	}
}

func TestPrevPageStopsAtFirstPage(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := loaded(t, b)

	if _, ok := c.PrevPage(); ok {
		t.Error("PrevPage on page 1 should be a no-op")
	}

	ctx := context.Background()
	p, _ := c.NextPage()
	c.Run(ctx, p)
	p, ok := c.PrevPage()
	if !ok || p.Query.Page != 1 {
		t.Fatalf("PrevPage = %+v, %v", p, ok)
	}
	c.Run(ctx, p)
	if c.State().Page != 1 {
		t.Errorf("Page = %d, want 1", c.State().Page)
	}
}

func TestPagingStaysInBounds(t *testing.T) {
	ctx := context.Background()
	for pages := 1; pages <= 4; pages++ {
		b := &fakeBackend{total: pages * 20}
		c := loaded(t, b)
		for start := 1; start <= pages; start++ {
			for c.State().Page < start {
				p, _ := c.NextPage()
				c.Run(ctx, p)
			}
			for c.State().Page > start {
				p, _ := c.PrevPage()
				c.Run(ctx, p)
			}

			if p, ok := c.NextPage(); ok {
				if got := c.State().Page; got != start+1 {
					t.Errorf("pages=%d: NextPage from %d went to %d", pages, start, got)
				}
				c.Run(ctx, p)
				p, _ = c.PrevPage()
				c.Run(ctx, p)
			} else if start != pages {
				t.Errorf("pages=%d: NextPage from %d refused", pages, start)
			}

			if p, ok := c.PrevPage(); ok {
				if got := c.State().Page; got != start-1 {
					t.Errorf("pages=%d: PrevPage from %d went to %d", pages, start, got)
				}
				c.Run(ctx, p)
				p, _ = c.NextPage()
				c.Run(ctx, p)
			} else if start != 1 {
				t.Errorf("pages=%d: PrevPage from %d refused", pages, start)
			}

			if st := c.State(); st.Page < 1 || st.Page > st.Pages {
				t.Fatalf("pages=%d: page %d out of bounds", pages, st.Page)
			}
		}
	}
}

func TestSetSearchResetsPage(t *testing.T) {
	b := &fakeBackend{total: 100}
	c := loaded(t, b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, _ := c.NextPage()
		c.Run(ctx, p)
	}
	if c.State().Page != 4 {
		t.Fatalf("Page = %d, want 4", c.State().Page)
	}

	p := c.SetSearch("ali")
	if p.Query.Page != 1 || p.Query.Search != "ali" {
		t.Errorf("Query = %+v, want page 1 search ali", p.Query)
	}
	if st := c.State(); st.Page != 1 || st.Search != "ali" {
		t.Errorf("State = %+v", st)
	}

	// clearing the search also resets the page
	c.Run(ctx, p)
	p2, _ := c.NextPage()
	c.Run(ctx, p2)
	if p := c.SetSearch(""); p.Query.Page != 1 || p.Query.Values().Has("search") {
		t.Errorf("empty search query = %+v", p.Query)
	}
}

func TestSeek(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := NewController(b.fetch, 20)
	ctx := context.Background()

	p := c.Seek(2, "ali")
	if p.Query.Page != 2 || p.Query.Search != "ali" {
		t.Errorf("Query = %+v, want page 2 search ali", p.Query)
	}
	if err := c.Run(ctx, p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := c.State(); st.Page != 2 || st.Pages != 3 || len(c.Rows()) != 20 || c.Rows()[0] != 20 {
		t.Errorf("State = %+v rows = %v", st, c.Rows())
	}

	if p := c.Seek(0, ""); p.Query.Page != 1 || p.Query.Values().Has("search") {
		t.Errorf("Seek(0) query = %+v", p.Query)
	}
}

func TestSeekPastEndClamps(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := NewController(b.fetch, 20)

	if err := c.Run(context.Background(), c.Seek(9, "")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := c.State(); st.Page != 3 || c.Loading() {
		t.Errorf("State = %+v loading=%v", st, c.Loading())
	}
	if len(b.queries) != 2 || b.queries[1].Page != 3 {
		t.Errorf("queries = %+v", b.queries)
	}
	if rows := c.Rows(); len(rows) != 5 || rows[0] != 40 {
		t.Errorf("Rows = %v", rows)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	b := &fakeBackend{total: 100}
	c := loaded(t, b)
	ctx := context.Background()

	older, _ := c.NextPage() // page 2
	newer, _ := c.NextPage() // page 3

	// newer resolves first, then the stale one arrives
	newerRes := newer.Do(ctx)
	olderRes := older.Do(ctx)

	if applied, _ := c.Apply(newerRes); !applied {
		t.Fatal("latest result should be applied")
	}
	if applied, _ := c.Apply(olderRes); applied {
		t.Fatal("superseded result must be discarded")
	}

	if rows := c.Rows(); rows[0] != 40 {
		t.Errorf("rows start at %d, want 40 (page 3)", rows[0])
	}
	if c.State().Page != 3 {
		t.Errorf("Page = %d, want 3", c.State().Page)
	}
}

func TestStaleResponseArrivingFirstDoesNotStopLoading(t *testing.T) {
	b := &fakeBackend{total: 100}
	c := loaded(t, b)
	ctx := context.Background()

	older := c.SetSearch("a")
	newer := c.SetSearch("ab")

	c.Apply(older.Do(ctx))
	if !c.Loading() {
		t.Error("controller should still be loading the newer search")
	}
	c.Apply(newer.Do(ctx))
	if c.Loading() {
		t.Error("controller should be idle after the latest result")
	}
	if last := b.queries[len(b.queries)-1]; last.Search != "ab" {
		t.Errorf("last query search = %q", last.Search)
	}
}

func TestRefreshKeepsState(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := loaded(t, b)
	ctx := context.Background()

	p := c.SetSearch("x")
	c.Run(ctx, p)
	p, _ = c.NextPage()
	c.Run(ctx, p)
	before := c.State()

	b.total = 50
	r := c.Refresh()
	if r.Query != (Query{Page: 2, Limit: 20, Search: "x"}) {
		t.Errorf("Refresh query = %+v", r.Query)
	}
	c.Run(ctx, r)

	after := c.State()
	if after.Page != before.Page || after.Limit != before.Limit || after.Search != before.Search {
		t.Errorf("Refresh changed parameters: %+v -> %+v", before, after)
	}
	if after.Total != 50 {
		t.Errorf("Total = %d, want 50", after.Total)
	}
}

func TestFailedFetchKeepsPreviousData(t *testing.T) {
	b := &fakeBackend{total: 45}
	c := loaded(t, b)
	before := c.State()
	rowsBefore := fmt.Sprint(c.Rows())

	boom := errors.New("connection refused")
	b.failFn = func(Query) error { return boom }

	err := c.Run(context.Background(), c.Refresh())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("Err() = %v", c.Err())
	}

	after := c.State()
	if after.Total != before.Total || after.Pages != before.Pages {
		t.Errorf("counts changed on failure: %+v -> %+v", before, after)
	}
	if fmt.Sprint(c.Rows()) != rowsBefore {
		t.Error("rows changed on failure")
	}
	if c.Loading() {
		t.Error("failed fetch should end loading")
	}

	b.failFn = nil
	if err := c.Run(context.Background(), c.Refresh()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.Err() != nil {
		t.Error("a successful fetch should clear the error")
	}
}

func TestApplyClampsPageWhenListShrinks(t *testing.T) {
	b := &fakeBackend{total: 60}
	c := loaded(t, b)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		p, _ := c.NextPage()
		c.Run(ctx, p)
	}

	b.total = 25
	applied, follow := c.Apply(c.Refresh().Do(ctx))
	if !applied || follow == nil {
		t.Fatalf("expected a clamp follow-up, got applied=%v follow=%v", applied, follow)
	}
	if follow.Query.Page != 2 {
		t.Errorf("follow-up page = %d, want 2", follow.Query.Page)
	}
	c.Run(ctx, follow)
	if st := c.State(); st.Page != 2 || st.Pages != 2 {
		t.Errorf("State = %+v", st)
	}
}

func TestEmptyListStaysOnPageOne(t *testing.T) {
	c := loaded(t, &fakeBackend{total: 0})
	st := c.State()
	if st.Page != 1 || st.Pages != 0 {
		t.Errorf("State = %+v", st)
	}
	if _, ok := c.NextPage(); ok {
		t.Error("NextPage on an empty list should be a no-op")
	}
	if from, to := st.Range(); from != 0 || to != 0 {
		t.Errorf("Range = %d..%d, want 0..0", from, to)
	}
}

func TestStateRange(t *testing.T) {
	tests := []struct {
		state    State
		from, to int
	}{
		{State{Page: 1, Limit: 20, Total: 45, Pages: 3}, 1, 20},
		{State{Page: 3, Limit: 20, Total: 45, Pages: 3}, 41, 45},
		{State{Page: 1, Limit: 20, Total: 7, Pages: 1}, 1, 7},
	}
	for _, tt := range tests {
		from, to := tt.state.Range()
		if from != tt.from || to != tt.to {
			t.Errorf("Range(%+v) = %d..%d, want %d..%d", tt.state, from, to, tt.from, tt.to)
		}
	}
}

func TestQueryValues(t *testing.T) {
	v := Query{Page: 2, Limit: 20, Search: "sql injection"}.Values()
	if v.Encode() != "limit=20&page=2&search=sql+injection" {
		t.Errorf("Encode = %q", v.Encode())
	}
}

func TestNewControllerDefaultLimit(t *testing.T) {
	c := NewController((&fakeBackend{}).fetch, 0)
	if c.State().Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", c.State().Limit, DefaultLimit)
	}
}

func TestSinglePage(t *testing.T) {
	if p := SinglePage([]string{"a", "b"}); p.Total != 2 || p.Pages != 1 {
		t.Errorf("SinglePage = %+v", p)
	}
	if p := SinglePage[string](nil); p.Pages != 0 {
		t.Errorf("empty SinglePage = %+v", p)
	}
}
