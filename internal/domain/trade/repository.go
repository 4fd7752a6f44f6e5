package trade

import (
	"context"

	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID finds a sales order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByOrderNumber finds a sales order by order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*SalesOrder, error)

	// FindByCustomer finds all sales orders of a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*SalesOrder, error)

	// ExistsByOrderNumber checks if an order number is already used
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// Save creates or updates a sales order
	Save(ctx context.Context, order *SalesOrder) error

	// Delete deletes a sales order
	Delete(ctx context.Context, id uuid.UUID) error
}
