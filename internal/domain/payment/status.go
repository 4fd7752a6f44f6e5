package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the payment status of an entity, derived from its transactions
type Status string

const (
	StatusNone    Status = "none"
	StatusPartial Status = "partial"
	StatusFull    Status = "full"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// StatusProvider derives payment status from payment transactions.
// Transactions in a currency other than the entity's are not counted.
type StatusProvider struct{}

// NewStatusProvider creates a StatusProvider
func NewStatusProvider() *StatusProvider {
	return &StatusProvider{}
}

// PaidAmount returns collected funds minus refunds over the counted transactions
func (p *StatusProvider) PaidAmount(currency string, transactions []*PaymentTransaction) decimal.Decimal {
	paid := decimal.Zero
	for _, t := range transactions {
		if t == nil || !t.Counts() || t.Currency != currency {
			continue
		}
		switch {
		case t.Action.CollectsFunds():
			paid = paid.Add(t.Amount)
		case t.Action == ActionRefund:
			paid = paid.Sub(t.Amount)
		}
	}
	return paid
}

// ComputeStatus returns Full once the paid amount covers total, Partial when
// something was paid and None otherwise. A zero total is never Full.
func (p *StatusProvider) ComputeStatus(total decimal.Decimal, currency string, transactions []*PaymentTransaction) Status {
	paid := p.PaidAmount(currency, transactions)
	switch {
	case total.IsPositive() && paid.GreaterThanOrEqual(total):
		return StatusFull
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusNone
	}
}

// MergeTransactions overlays pending transactions on the committed ones.
// A pending transaction replaces the committed transaction with the same ID.
func MergeTransactions(committed, pending []*PaymentTransaction) []*PaymentTransaction {
	merged := make([]*PaymentTransaction, 0, len(committed)+len(pending))
	replaced := make(map[uuid.UUID]struct{}, len(pending))
	for _, t := range pending {
		replaced[t.ID] = struct{}{}
	}
	for _, t := range committed {
		if _, ok := replaced[t.ID]; ok {
			continue
		}
		merged = append(merged, t)
	}
	return append(merged, pending...)
}
