package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentTransactionRepository defines the interface for payment transaction persistence
type PaymentTransactionRepository interface {
	// FindByID finds a payment transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentTransaction, error)

	// FindByEntity finds all transactions made against an entity
	FindByEntity(ctx context.Context, entityClass string, entityID uuid.UUID) ([]*PaymentTransaction, error)

	// Save creates or updates a payment transaction
	Save(ctx context.Context, transaction *PaymentTransaction) error

	// Delete deletes a payment transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
