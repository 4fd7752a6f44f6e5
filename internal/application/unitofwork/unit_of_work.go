// Package unitofwork defines the transactional write boundary used by the
// application services and the hooks listeners attach to it.
package unitofwork

import (
	"context"

	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
)

// Repositories provides access to all repositories.
// Within a flush, every repository returned shares the flush transaction.
type Repositories interface {
	// Customers returns the customer repository
	Customers() partner.CustomerRepository
	// SalesOrders returns the sales order repository
	SalesOrders() trade.SalesOrderRepository
	// PaymentTransactions returns the payment transaction repository
	PaymentTransactions() payment.PaymentTransactionRepository
}

// FlushEvent is delivered to listeners once the writes of a flush have been
// issued and before its transaction commits
type FlushEvent struct {
	// Mutations holds every pending change of the flush, in scheduling order
	Mutations []shared.PendingMutation
	// Repos reads state inside the flush transaction
	Repos Repositories
}

// Entity returns the instance the flush inserts or updates under the given ID
func (e *FlushEvent) Entity(id uuid.UUID) (shared.Entity, bool) {
	for _, m := range e.Mutations {
		if !m.IsDelete() && m.Entity.GetID() == id {
			return m.Entity, true
		}
	}
	return nil, false
}

// IsScheduledForDelete reports whether the flush deletes the entity with the given ID
func (e *FlushEvent) IsScheduledForDelete(id uuid.UUID) bool {
	for _, m := range e.Mutations {
		if m.IsDelete() && m.Entity.GetID() == id {
			return true
		}
	}
	return false
}

// Listener observes the flushes of a unit of work.
//
// OnFlush runs inside the flush transaction; an error rolls the flush back.
// PostFlush runs after a successful commit. OnAbort runs after a rollback.
type Listener interface {
	OnFlush(ctx context.Context, event *FlushEvent) error
	PostFlush(ctx context.Context) error
	OnAbort(ctx context.Context)
}

// UnitOfWork collects aggregate changes and writes them in one transaction.
// A unit of work is not safe for concurrent use.
type UnitOfWork interface {
	// Insert schedules a new aggregate for insertion
	Insert(aggregate shared.AggregateRoot) error
	// Update schedules a stored aggregate for update with its recorded changes
	Update(aggregate shared.AggregateRoot) error
	// Delete schedules an aggregate for deletion.
	// Deleting an aggregate that is only scheduled for insertion cancels the insertion.
	Delete(aggregate shared.AggregateRoot) error
	// Flush writes every scheduled change in one transaction and notifies the listeners.
	// It may be called again from a listener's PostFlush.
	Flush(ctx context.Context) error
	// Repositories reads committed state outside of a flush
	Repositories() Repositories
}

// ListenerFactory creates the listeners of a new unit of work
type ListenerFactory func(uow UnitOfWork) Listener

// Factory creates units of work. Every unit of work gets fresh listeners.
type Factory interface {
	New() UnitOfWork
}
