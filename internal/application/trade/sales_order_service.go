// Package trade holds the sales order use cases. Every call runs in its own
// unit of work, so customer lifetime values follow each committed change.
package trade

import (
	"context"
	"errors"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
)

// ErrCustomerNotFound is returned when an order references an unknown customer
var ErrCustomerNotFound = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	uows unitofwork.Factory
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(uows unitofwork.Factory) *SalesOrderService {
	return &SalesOrderService{uows: uows}
}

// Create creates a new draft sales order
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	uow := s.uows.New()
	repos := uow.Repositories()

	exists, err := repos.SalesOrders().ExistsByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Sales order with this number already exists")
	}
	if err := ensureCustomer(ctx, repos, req.CustomerID); err != nil {
		return nil, err
	}

	order, err := trade.NewSalesOrder(req.OrderNumber, req.CustomerID, req.Subtotal, req.Currency)
	if err != nil {
		return nil, err
	}
	if req.Label != "" {
		if err := order.Relabel(req.Label); err != nil {
			return nil, err
		}
	}

	if err := uow.Insert(order); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.uows.New().Repositories().SalesOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ListByCustomer returns the orders of a customer, oldest first
func (s *SalesOrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]SalesOrderResponse, error) {
	orders, err := s.uows.New().Repositories().SalesOrders().FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	responses := make([]SalesOrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = ToSalesOrderResponse(o)
	}
	return responses, nil
}

// Update applies the requested changes to an order in one flush
func (s *SalesOrderService) Update(ctx context.Context, id uuid.UUID, req UpdateSalesOrderRequest) (*SalesOrderResponse, error) {
	return s.modify(ctx, id, func(ctx context.Context, repos unitofwork.Repositories, order *trade.SalesOrder) error {
		if req.CustomerID != nil {
			if err := ensureCustomer(ctx, repos, *req.CustomerID); err != nil {
				return err
			}
			if err := order.ChangeCustomer(*req.CustomerID); err != nil {
				return err
			}
		}
		if req.Subtotal != nil {
			if err := order.ChangeSubtotal(*req.Subtotal); err != nil {
				return err
			}
		}
		if req.Label != nil {
			if err := order.Relabel(*req.Label); err != nil {
				return err
			}
		}
		return nil
	})
}

// Confirm confirms a draft order
func (s *SalesOrderService) Confirm(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	return s.modify(ctx, id, func(_ context.Context, _ unitofwork.Repositories, order *trade.SalesOrder) error {
		return order.Confirm()
	})
}

// Cancel cancels an order
func (s *SalesOrderService) Cancel(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	return s.modify(ctx, id, func(_ context.Context, _ unitofwork.Repositories, order *trade.SalesOrder) error {
		return order.Cancel()
	})
}

// Delete deletes an order
func (s *SalesOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uows.New()

	order, err := uow.Repositories().SalesOrders().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uow.Delete(order); err != nil {
		return err
	}
	return uow.Flush(ctx)
}

func (s *SalesOrderService) modify(
	ctx context.Context,
	id uuid.UUID,
	change func(context.Context, unitofwork.Repositories, *trade.SalesOrder) error,
) (*SalesOrderResponse, error) {
	uow := s.uows.New()
	repos := uow.Repositories()

	order, err := repos.SalesOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(ctx, repos, order); err != nil {
		return nil, err
	}

	if err := uow.Update(order); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

func ensureCustomer(ctx context.Context, repos unitofwork.Repositories, id uuid.UUID) error {
	_, err := repos.Customers().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}
