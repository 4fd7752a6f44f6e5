package lifetime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DrainResult summarises one drain of the queue
type DrainResult struct {
	Queued     int  // owners in the queue when the drain started
	Skipped    int  // owners without identity
	Recomputed int  // owners whose value was recomputed
	Changed    int  // owners whose value changed and were persisted
	Reentrant  bool // the drain was suppressed by the re-entrancy guard
}

// Queue holds the owners awaiting recomputation for one unit of work.
// It is not safe for concurrent use; each unit of work owns its own queue.
type Queue struct {
	owners     map[uuid.UUID]Owner
	order      []uuid.UUID
	inProgress bool
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{owners: make(map[uuid.UUID]Owner)}
}

// Enqueue adds an owner. Adding an identity that is already queued is a no-op.
func (q *Queue) Enqueue(owner Owner) {
	if owner == nil {
		return
	}
	id := owner.GetID()
	if _, ok := q.owners[id]; ok {
		return
	}
	q.owners[id] = owner
	q.order = append(q.order, id)
}

// Contains reports whether the identity is queued
func (q *Queue) Contains(id uuid.UUID) bool {
	_, ok := q.owners[id]
	return ok
}

// Len returns the number of queued owners
func (q *Queue) Len() int {
	return len(q.order)
}

// InProgress reports whether the queue is persisting the results of a drain
func (q *Queue) InProgress() bool {
	return q.inProgress
}

// Discard drops every queued owner without recomputing anything
func (q *Queue) Discard() {
	q.owners = make(map[uuid.UUID]Owner)
	q.order = nil
}

// DrainAndRecompute recomputes every queued owner that still has an identity,
// assigns the new value where it differs from the stored one and hands the
// changed owners to persist in a single call. The queue is empty afterwards,
// whatever the outcome. A recompute error aborts the drain before any owner
// is modified or persisted.
//
// A call made while persist is running returns immediately with
// DrainResult.Reentrant set and leaves the queue untouched.
func (q *Queue) DrainAndRecompute(ctx context.Context, recompute RecomputeFunc, persist PersistFunc) (DrainResult, error) {
	if q.inProgress {
		return DrainResult{Reentrant: true}, nil
	}
	defer q.Discard()

	result := DrainResult{Queued: len(q.order)}
	if result.Queued == 0 {
		return result, nil
	}

	type pending struct {
		owner Owner
		value decimal.Decimal
	}
	changes := make([]pending, 0, result.Queued)
	for _, id := range q.order {
		owner := q.owners[id]
		if !owner.HasIdentity() {
			result.Skipped++
			continue
		}

		value, err := recompute(ctx, owner)
		if err != nil {
			return result, fmt.Errorf("recompute owner %s: %w", id, err)
		}
		result.Recomputed++

		if !value.Equal(owner.DerivedValue()) {
			changes = append(changes, pending{owner: owner, value: value})
		}
	}

	if len(changes) == 0 {
		return result, nil
	}

	dirty := make([]Owner, len(changes))
	for i, c := range changes {
		c.owner.SetDerivedValue(c.value)
		dirty[i] = c.owner
	}
	q.inProgress = true
	err := persist(ctx, dirty)
	q.inProgress = false
	if err != nil {
		return result, fmt.Errorf("persist %d owners: %w", len(dirty), err)
	}

	result.Changed = len(dirty)
	return result, nil
}
