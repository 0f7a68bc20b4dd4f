package listing

import "context"

// DetailFetcher loads one record by identifier
type DetailFetcher[K comparable, D any] func(ctx context.Context, id K) (D, error)

// DetailPending is an issued detail fetch
type DetailPending[K comparable, D any] struct {
	Generation uint64
	ID         K
	fetch      DetailFetcher[K, D]
}

// Do runs the fetch without touching the Detail
func (p *DetailPending[K, D]) Do(ctx context.Context) DetailResult[K, D] {
	record, err := p.fetch(ctx, p.ID)
	return DetailResult[K, D]{
		Generation: p.Generation,
		ID:         p.ID,
		Record:     record,
		Err:        err,
	}
}

// DetailResult is the outcome of a DetailPending fetch
type DetailResult[K comparable, D any] struct {
	Generation uint64
	ID         K
	Record     D
	Err        error
}

// Detail tracks the single selected entity and its fetched record.
// At most one entity is selected; selecting another discards the previous
// record, and late results for earlier selections are ignored.
type Detail[K comparable, D any] struct {
	fetch      DetailFetcher[K, D]
	generation uint64
	selected   K
	open       bool
	record     D
	hasRecord  bool
	inflight   bool
	err        error
}

// NewDetail creates a closed detail view
func NewDetail[K comparable, D any](fetch DetailFetcher[K, D]) *Detail[K, D] {
	return &Detail[K, D]{fetch: fetch}
}

// Select opens the detail for id and issues its fetch
func (d *Detail[K, D]) Select(id K) *DetailPending[K, D] {
	if !d.open || d.selected != id {
		var zero D
		d.record = zero
		d.hasRecord = false
		d.err = nil
	}
	d.selected = id
	d.open = true
	return d.issue()
}

// Reload re-fetches the open record. Returns nil when nothing is selected.
func (d *Detail[K, D]) Reload() *DetailPending[K, D] {
	if !d.open {
		return nil
	}
	return d.issue()
}

// Close deselects the entity; any in-flight fetch becomes stale
func (d *Detail[K, D]) Close() {
	var zeroK K
	var zeroD D
	d.generation++
	d.selected = zeroK
	d.record = zeroD
	d.open = false
	d.hasRecord = false
	d.inflight = false
	d.err = nil
}

func (d *Detail[K, D]) issue() *DetailPending[K, D] {
	d.generation++
	d.inflight = true
	return &DetailPending[K, D]{Generation: d.generation, ID: d.selected, fetch: d.fetch}
}

// Apply stores the result if it belongs to the latest fetch of the open selection
func (d *Detail[K, D]) Apply(r DetailResult[K, D]) bool {
	if !d.open || r.Generation != d.generation || r.ID != d.selected {
		return false
	}
	d.inflight = false
	if r.Err != nil {
		d.err = r.Err
		return true
	}
	d.err = nil
	d.record = r.Record
	d.hasRecord = true
	return true
}

// Run executes p and applies its result, returning the error if it was applied
func (d *Detail[K, D]) Run(ctx context.Context, p *DetailPending[K, D]) error {
	if p == nil {
		return nil
	}
	res := p.Do(ctx)
	if d.Apply(res) {
		return res.Err
	}
	return nil
}

// Selected returns the open identifier
func (d *Detail[K, D]) Selected() (K, bool) { return d.selected, d.open }

// IsOpen reports whether the detail for id is open
func (d *Detail[K, D]) IsOpen(id K) bool { return d.open && d.selected == id }

// Record returns the fetched record of the open selection
func (d *Detail[K, D]) Record() (D, bool) { return d.record, d.hasRecord }

// Err returns the error of the last applied fetch
func (d *Detail[K, D]) Err() error { return d.err }

// Loading reports whether the latest detail fetch is outstanding
func (d *Detail[K, D]) Loading() bool { return d.inflight }
