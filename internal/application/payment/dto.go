package payment

import (
	"time"

	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordTransactionRequest represents a gateway operation to record
type RecordTransactionRequest struct {
	// EntityClass defaults to sales orders
	EntityClass string          `json:"entity_class" binding:"omitempty,max=100"`
	EntityID    uuid.UUID       `json:"entity_id" binding:"required"`
	Action      string          `json:"action" binding:"required,oneof=authorize charge capture purchase refund"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"required,len=3"`
	Successful  bool            `json:"successful"`
	Reference   string          `json:"reference" binding:"max=100"`
}

// TransactionResultRequest records the gateway response of a transaction
type TransactionResultRequest struct {
	Successful bool   `json:"successful"`
	Reference  string `json:"reference" binding:"max=100"`
}

// TransactionResponse represents a payment transaction in API responses
type TransactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	EntityClass string          `json:"entity_class"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Action      string          `json:"action"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Successful  bool            `json:"successful"`
	Active      bool            `json:"active"`
	Reference   string          `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToTransactionResponse converts a domain PaymentTransaction to TransactionResponse
func ToTransactionResponse(t *payment.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		EntityClass: t.EntityClass,
		EntityID:    t.EntityIdentifier,
		Action:      string(t.Action),
		Amount:      t.Amount,
		Currency:    t.Currency,
		Successful:  t.Successful,
		Active:      t.Active,
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
