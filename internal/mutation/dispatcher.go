// Package mutation runs server-side changes to list entities and schedules
// the refetches that make the list and detail views reflect them.
package mutation

import (
	"context"

	"github.com/secacademy/academy-admin/internal/listing"
)

// Mutate applies payload to the entity id on the backend
type Mutate[K comparable, P any] func(ctx context.Context, id K, payload P) error

// Dispatcher ties a mutation to the list (and optional detail) it affects.
// There is no optimistic update: views change only through the follow-up fetches.
type Dispatcher[K comparable, P, T, D any] struct {
	mutate Mutate[K, P]
	list   *listing.Controller[T]
	detail *listing.Detail[K, D]
}

// New creates a dispatcher. list may be nil when no list shows the entity,
// detail may be nil for screens without a detail view.
func New[K comparable, P, T, D any](mutate Mutate[K, P], list *listing.Controller[T], detail *listing.Detail[K, D]) *Dispatcher[K, P, T, D] {
	return &Dispatcher[K, P, T, D]{mutate: mutate, list: list, detail: detail}
}

// Pending is a prepared mutation
type Pending[K comparable, P any] struct {
	ID      K
	Payload P
	mutate  Mutate[K, P]
}

// Do sends the mutation. It does not touch any view state.
func (p *Pending[K, P]) Do(ctx context.Context) Outcome[K] {
	return Outcome[K]{ID: p.ID, Err: p.mutate(ctx, p.ID, p.Payload)}
}

// Outcome is the backend's verdict on a mutation
type Outcome[K comparable] struct {
	ID  K
	Err error
}

// Followup holds the refetches a committed mutation requires.
// List is nil when the dispatcher has no list; Detail is nil when no detail
// view for the mutated entity is open.
type Followup[K comparable, T, D any] struct {
	List   *listing.Pending[T]
	Detail *listing.DetailPending[K, D]
}

// Prepare snapshots a mutation for Do
func (d *Dispatcher[K, P, T, D]) Prepare(id K, payload P) *Pending[K, P] {
	return &Pending[K, P]{ID: id, Payload: payload, mutate: d.mutate}
}

// Complete turns an outcome into follow-up fetches. On failure the error is
// returned and nothing is issued.
func (d *Dispatcher[K, P, T, D]) Complete(o Outcome[K]) (Followup[K, T, D], error) {
	if o.Err != nil {
		return Followup[K, T, D]{}, o.Err
	}

	var f Followup[K, T, D]
	if d.list != nil {
		f.List = d.list.Refresh()
	}
	if d.detail != nil && d.detail.IsOpen(o.ID) {
		f.Detail = d.detail.Reload()
	}
	return f, nil
}

// Apply sends the mutation and, on success, issues the follow-ups
func (d *Dispatcher[K, P, T, D]) Apply(ctx context.Context, id K, payload P) (Followup[K, T, D], error) {
	return d.Complete(d.Prepare(id, payload).Do(ctx))
}

// Run executes and applies the follow-ups in place. It returns the first
// refetch error; both refetches are attempted regardless.
func (d *Dispatcher[K, P, T, D]) Run(ctx context.Context, f Followup[K, T, D]) error {
	var firstErr error
	if f.List != nil && d.list != nil {
		firstErr = d.list.Run(ctx, f.List)
	}
	if f.Detail != nil && d.detail != nil {
		if err := d.detail.Run(ctx, f.Detail); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
