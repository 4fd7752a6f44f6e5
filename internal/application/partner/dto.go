package partner

import (
	"time"

	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Code  string `json:"code" binding:"required,min=1,max=50"`
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email *string `json:"email" binding:"omitempty,max=200"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Status    string          `json:"status"`
	Lifetime  decimal.Decimal `json:"lifetime"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Email:     c.Email,
		Status:    string(c.Status),
		Lifetime:  c.Lifetime,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
