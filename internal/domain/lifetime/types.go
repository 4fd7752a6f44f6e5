package lifetime

import (
	"context"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Owner is an entity holding a value derived from its related entities
type Owner interface {
	GetID() uuid.UUID
	HasIdentity() bool
	DerivedValue() decimal.Decimal
	SetDerivedValue(value decimal.Decimal)
}

// Primary is a related entity that references its owner directly (an order)
type Primary interface {
	shared.Entity
	OwnerID() uuid.UUID
}

// Secondary is a related entity that reaches its owner through a primary
// parent (a payment transaction made against an order)
type Secondary interface {
	shared.Entity
	ParentClass() string
	ParentID() uuid.UUID
}

// Status is the cumulative satisfaction state of a primary entity
type Status int

const (
	StatusNone Status = iota
	StatusPartial
	StatusFull
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPartial:
		return "partial"
	case StatusFull:
		return "full"
	default:
		return "none"
	}
}

// ParentResolver loads the primary parent of a secondary entity.
// It returns shared.ErrNotFound when the parent does not exist.
type ParentResolver interface {
	ResolveParent(ctx context.Context, s Secondary) (Primary, error)
}

// StatusComputer computes the status a primary entity reaches once the given
// pending secondary mutations are applied on top of the committed state
type StatusComputer interface {
	ComputeStatus(ctx context.Context, parent Primary, pending []Secondary) (Status, error)
}

// PrimaryGate decides whether mutations of a primary entity are considered at all
type PrimaryGate func(ctx context.Context, p Primary) (bool, error)

// RecomputeFunc computes the derived value of an owner from committed state
type RecomputeFunc func(ctx context.Context, owner Owner) (decimal.Decimal, error)

// PersistFunc saves owners whose derived value changed, as one batch
type PersistFunc func(ctx context.Context, owners []Owner) error
