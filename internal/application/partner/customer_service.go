// Package partner holds the customer use cases.
package partner

import (
	"context"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	uows unitofwork.Factory
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(uows unitofwork.Factory) *CustomerService {
	return &CustomerService{uows: uows}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	uow := s.uows.New()

	exists, err := uow.Repositories().Customers().ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this code already exists")
	}

	customer, err := partner.NewCustomer(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Email != "" {
		if err := customer.SetEmail(req.Email); err != nil {
			return nil, err
		}
	}

	if err := uow.Insert(customer); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.uows.New().Repositories().Customers().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Update changes the name and email of a customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	uow := s.uows.New()

	customer, err := uow.Repositories().Customers().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := customer.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if err := customer.SetEmail(*req.Email); err != nil {
			return nil, err
		}
	}

	if err := uow.Update(customer); err != nil {
		return nil, err
	}
	if err := uow.Flush(ctx); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete deletes a customer
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uows.New()

	customer, err := uow.Repositories().Customers().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uow.Delete(customer); err != nil {
		return err
	}
	return uow.Flush(ctx)
}
