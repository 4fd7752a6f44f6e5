package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action is the operation a payment transaction performed against the gateway
type Action string

const (
	ActionAuthorize Action = "authorize"
	ActionCharge    Action = "charge"
	ActionCapture   Action = "capture"
	ActionPurchase  Action = "purchase"
	ActionRefund    Action = "refund"
)

// IsValid checks if the action is a valid Action
func (a Action) IsValid() bool {
	switch a {
	case ActionAuthorize, ActionCharge, ActionCapture, ActionPurchase, ActionRefund:
		return true
	}
	return false
}

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// CollectsFunds returns true if a successful transaction of this action moves money to the merchant
func (a Action) CollectsFunds() bool {
	return a == ActionCharge || a == ActionCapture || a == ActionPurchase
}

// Payment transaction field names as recorded in change sets
const (
	FieldSuccessful = "successful"
	FieldActive     = "active"
)

// PaymentTransaction is a single gateway operation made against an entity,
// referenced by class name and identifier
type PaymentTransaction struct {
	shared.BaseAggregateRoot
	EntityClass      string
	EntityIdentifier uuid.UUID
	Action           Action
	Amount           decimal.Decimal
	Currency         string
	Successful       bool
	Active           bool
	Reference        string
}

// NewPaymentTransaction creates a new pending, active transaction
func NewPaymentTransaction(entityClass string, entityID uuid.UUID, action Action, amount decimal.Decimal, currency string) (*PaymentTransaction, error) {
	if entityClass == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_CLASS", "Entity class cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Entity identifier cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", fmt.Sprintf("Unknown payment action %q", action))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}

	return &PaymentTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntityClass:       entityClass,
		EntityIdentifier:  entityID,
		Action:            action,
		Amount:            amount,
		Currency:          currency,
		Active:            true,
	}, nil
}

// ParentClass returns the class name of the entity the transaction was made against
func (t *PaymentTransaction) ParentClass() string {
	return t.EntityClass
}

// ParentID returns the identifier of the entity the transaction was made against
func (t *PaymentTransaction) ParentID() uuid.UUID {
	return t.EntityIdentifier
}

// MarkSuccessful records a successful gateway response
func (t *PaymentTransaction) MarkSuccessful(reference string) {
	t.Reference = reference
	t.setSuccessful(true)
}

// MarkFailed records a failed gateway response
func (t *PaymentTransaction) MarkFailed(reference string) {
	t.Reference = reference
	t.setSuccessful(false)
}

// Deactivate voids the transaction so that it no longer counts towards payments
func (t *PaymentTransaction) Deactivate() {
	if !t.Active {
		return
	}
	t.RecordChange(FieldActive, true, false)
	t.Active = false
	t.touch()
}

// Counts returns true if the transaction contributes to the paid amount
func (t *PaymentTransaction) Counts() bool {
	return t.Successful && t.Active
}

func (t *PaymentTransaction) setSuccessful(successful bool) {
	if t.Successful != successful {
		t.RecordChange(FieldSuccessful, t.Successful, successful)
		t.Successful = successful
	}
	t.touch()
}

func (t *PaymentTransaction) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}
