package models

import (
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentTransactionModel is the persistence model for the PaymentTransaction domain entity.
type PaymentTransactionModel struct {
	AggregateModel
	EntityClass      string          `gorm:"type:varchar(100);not null;index:idx_payment_entity,priority:1"`
	EntityIdentifier uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_entity,priority:2"`
	Action           payment.Action  `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	Successful       bool            `gorm:"not null;default:false"`
	Active           bool            `gorm:"not null;default:true"`
	Reference        string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain PaymentTransaction entity.
func (m *PaymentTransactionModel) ToDomain() *payment.PaymentTransaction {
	return &payment.PaymentTransaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		EntityClass:       m.EntityClass,
		EntityIdentifier:  m.EntityIdentifier,
		Action:            m.Action,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Successful:        m.Successful,
		Active:            m.Active,
		Reference:         m.Reference,
	}
}

// FromDomain populates the persistence model from a domain PaymentTransaction entity.
func (m *PaymentTransactionModel) FromDomain(t *payment.PaymentTransaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.EntityClass = t.EntityClass
	m.EntityIdentifier = t.EntityIdentifier
	m.Action = t.Action
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.Successful = t.Successful
	m.Active = t.Active
	m.Reference = t.Reference
}

// PaymentTransactionModelFromDomain creates a new persistence model from a domain PaymentTransaction entity.
func PaymentTransactionModelFromDomain(t *payment.PaymentTransaction) *PaymentTransactionModel {
	m := &PaymentTransactionModel{}
	m.FromDomain(t)
	return m
}
