package handler

import (
	"context"

	"github.com/erp/lifetime/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SalesOrderHandler handles sales order API endpoints
type SalesOrderHandler struct {
	BaseHandler
	orders *trade.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orders *trade.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orders: orders}
}

// RegisterRoutes registers the sales order routes
func (h *SalesOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	orders.POST("", h.Create)
	orders.GET("/:id", h.GetByID)
	orders.PATCH("/:id", h.Update)
	orders.DELETE("/:id", h.Delete)
	orders.POST("/:id/confirm", h.Confirm)
	orders.POST("/:id/cancel", h.Cancel)

	rg.GET("/customers/:id/orders", h.ListByCustomer)
}

// Create handles POST /orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req trade.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /orders/:id
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ListByCustomer handles GET /customers/:id/orders
func (h *SalesOrderHandler) ListByCustomer(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	orders, err := h.orders.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// Update handles PATCH /orders/:id
func (h *SalesOrderHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req trade.UpdateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Confirm handles POST /orders/:id/confirm
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.orders.Confirm)
}

// Cancel handles POST /orders/:id/cancel
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.orders.Cancel)
}

// Delete handles DELETE /orders/:id
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SalesOrderHandler) transition(
	c *gin.Context,
	apply func(context.Context, uuid.UUID) (*trade.SalesOrderResponse, error),
) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
