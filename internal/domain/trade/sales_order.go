package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusCompleted
	case OrderStatusCompleted, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// EntityClass is the class name payment transactions use to reference a sales order
const EntityClass = "sales_order"

// Sales order field names as recorded in change sets
const (
	FieldCustomer      = "customer"
	FieldSubtotalValue = "subtotal_value"
	FieldCurrency      = "currency"
	FieldLabel         = "label"
	FieldStatus        = "status"
)

// SalesOrder represents a sales order placed by a customer.
// SubtotalValue is expressed in Currency.
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	CustomerID    uuid.UUID
	SubtotalValue decimal.Decimal
	Currency      string
	Label         string
	Status        OrderStatus
}

// NewSalesOrder creates a new draft sales order
func NewSalesOrder(orderNumber string, customerID uuid.UUID, subtotal decimal.Decimal, currency string) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if err := validateSubtotal(subtotal); err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		SubtotalValue:     subtotal,
		Currency:          currency,
		Status:            OrderStatusDraft,
	}, nil
}

// OwnerID returns the customer the order belongs to
func (o *SalesOrder) OwnerID() uuid.UUID {
	return o.CustomerID
}

// ChangeCustomer moves the order to another customer
func (o *SalesOrder) ChangeCustomer(customerID uuid.UUID) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	if customerID == uuid.Nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerID == o.CustomerID {
		return nil
	}

	o.RecordChange(FieldCustomer, o.CustomerID, customerID)
	o.CustomerID = customerID
	o.touch()
	return nil
}

// ChangeSubtotal sets the order subtotal, in the order currency
func (o *SalesOrder) ChangeSubtotal(subtotal decimal.Decimal) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	if err := validateSubtotal(subtotal); err != nil {
		return err
	}
	if subtotal.Equal(o.SubtotalValue) {
		return nil
	}

	o.RecordChange(FieldSubtotalValue, o.SubtotalValue, subtotal)
	o.SubtotalValue = subtotal
	o.touch()
	return nil
}

// Relabel sets the free-form label of the order
func (o *SalesOrder) Relabel(label string) error {
	label = strings.TrimSpace(label)
	if len(label) > 255 {
		return shared.NewDomainError("INVALID_LABEL", "Label cannot exceed 255 characters")
	}
	if label == o.Label {
		return nil
	}

	o.RecordChange(FieldLabel, o.Label, label)
	o.Label = label
	o.touch()
	return nil
}

// Confirm confirms the order
func (o *SalesOrder) Confirm() error {
	if o.SubtotalValue.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Order subtotal must be positive")
	}
	return o.transitionTo(OrderStatusConfirmed)
}

// Ship marks the order as shipped
func (o *SalesOrder) Ship() error {
	return o.transitionTo(OrderStatusShipped)
}

// Complete marks the order as completed
func (o *SalesOrder) Complete() error {
	return o.transitionTo(OrderStatusCompleted)
}

// Cancel cancels the order
func (o *SalesOrder) Cancel() error {
	return o.transitionTo(OrderStatusCancelled)
}

// IsCancelled returns true if order is cancelled
func (o *SalesOrder) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsTerminal returns true if order is in a terminal state
func (o *SalesOrder) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

func (o *SalesOrder) transitionTo(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	o.RecordChange(FieldStatus, o.Status, target)
	o.Status = target
	o.touch()
	return nil
}

func (o *SalesOrder) ensureModifiable() error {
	if o.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify order in %s status", o.Status))
	}
	return nil
}

func (o *SalesOrder) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

func validateSubtotal(subtotal decimal.Decimal) error {
	if subtotal.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Subtotal cannot be negative")
	}
	return nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	return currency, nil
}
