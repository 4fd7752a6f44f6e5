package trade

import (
	"time"

	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	OrderNumber string          `json:"order_number" binding:"required,min=1,max=50"`
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Currency    string          `json:"currency" binding:"required,len=3"`
	Label       string          `json:"label" binding:"max=255"`
}

// UpdateSalesOrderRequest changes the customer, subtotal or label of an order.
// Nil fields are left unchanged.
type UpdateSalesOrderRequest struct {
	CustomerID *uuid.UUID       `json:"customer_id"`
	Subtotal   *decimal.Decimal `json:"subtotal"`
	Label      *string          `json:"label" binding:"omitempty,max=255"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Currency    string          `json:"currency"`
	Label       string          `json:"label"`
	Status      string          `json:"status"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToSalesOrderResponse converts a domain SalesOrder to SalesOrderResponse
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	return SalesOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Subtotal:    o.SubtotalValue,
		Currency:    o.Currency,
		Label:       o.Label,
		Status:      string(o.Status),
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
