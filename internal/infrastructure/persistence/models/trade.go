package models

import (
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder domain aggregate.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber   string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_order_number"`
	CustomerID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	SubtotalValue decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Currency      string            `gorm:"type:varchar(3);not null"`
	Label         string            `gorm:"type:varchar(255)"`
	Status        trade.OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder entity.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	return &trade.SalesOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		SubtotalValue:     m.SubtotalValue,
		Currency:          m.Currency,
		Label:             m.Label,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain SalesOrder entity.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.SubtotalValue = o.SubtotalValue
	m.Currency = o.Currency
	m.Label = o.Label
	m.Status = o.Status
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder entity.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}
