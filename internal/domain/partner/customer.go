package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer field names as recorded in change sets
const (
	CustomerFieldName     = "name"
	CustomerFieldEmail    = "email"
	CustomerFieldStatus   = "status"
	CustomerFieldLifetime = "lifetime"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer represents a customer in the partner context.
// Lifetime is the customer's lifetime sales value, derived from fully paid orders.
type Customer struct {
	shared.BaseAggregateRoot
	Code     string
	Name     string
	Email    string
	Status   CustomerStatus
	Lifetime decimal.Decimal
}

// NewCustomer creates a new customer with required fields
func NewCustomer(code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            CustomerStatusActive,
		Lifetime:          decimal.Zero,
	}, nil
}

// Rename updates the customer's display name
func (c *Customer) Rename(name string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if name == c.Name {
		return nil
	}

	c.RecordChange(CustomerFieldName, c.Name, name)
	c.Name = name
	c.touch()
	return nil
}

// SetEmail sets the customer's contact email
func (c *Customer) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if email == c.Email {
		return nil
	}

	c.RecordChange(CustomerFieldEmail, c.Email, email)
	c.Email = email
	c.touch()
	return nil
}

// Deactivate marks the customer as inactive
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}
	c.RecordChange(CustomerFieldStatus, c.Status, CustomerStatusInactive)
	c.Status = CustomerStatusInactive
	c.touch()
	return nil
}

// SetLifetime sets the lifetime sales value
func (c *Customer) SetLifetime(value decimal.Decimal) {
	if value.Equal(c.Lifetime) {
		return
	}
	c.RecordChange(CustomerFieldLifetime, c.Lifetime, value)
	c.Lifetime = value
	c.touch()
}

// DerivedValue returns the lifetime sales value
func (c *Customer) DerivedValue() decimal.Decimal {
	return c.Lifetime
}

// SetDerivedValue sets the lifetime sales value
func (c *Customer) SetDerivedValue(value decimal.Decimal) {
	c.SetLifetime(value)
}

// IsActive returns true if customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Validation functions

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
