package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDs finds multiple customers by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Customer, error)

	// FindByCode finds a customer by its code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// ExistsByCode checks if a customer with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// SaveBatch creates or updates multiple customers
	SaveBatch(ctx context.Context, customers []*Customer) error

	// Delete deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error
}
