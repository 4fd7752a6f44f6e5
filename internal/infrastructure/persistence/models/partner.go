package models

import (
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Code     string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_code"`
	Name     string                 `gorm:"type:varchar(200);not null"`
	Email    string                 `gorm:"type:varchar(200);index"`
	Status   partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Lifetime decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Email:             m.Email,
		Status:            m.Status,
		Lifetime:          m.Lifetime,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Email = c.Email
	m.Status = c.Status
	m.Lifetime = c.Lifetime
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
