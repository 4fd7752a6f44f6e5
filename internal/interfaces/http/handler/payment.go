package handler

import (
	"github.com/erp/lifetime/internal/application/payment"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment transaction API endpoints
type PaymentHandler struct {
	BaseHandler
	payments *payment.PaymentTransactionService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *payment.PaymentTransactionService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterRoutes registers the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	payments.POST("", h.Record)
	payments.GET("/:id", h.GetByID)
	payments.POST("/:id/result", h.RecordResult)
	payments.POST("/:id/void", h.Void)

	rg.GET("/orders/:id/payments", h.ListByOrder)
}

// Record handles POST /payments
func (h *PaymentHandler) Record(c *gin.Context) {
	var req payment.RecordTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.payments.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// GetByID handles GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	tx, err := h.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// ListByOrder handles GET /orders/:id/payments
func (h *PaymentHandler) ListByOrder(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	txs, err := h.payments.ListByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}

// RecordResult handles POST /payments/:id/result
func (h *PaymentHandler) RecordResult(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req payment.TransactionResultRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tx, err := h.payments.RecordResult(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Void handles POST /payments/:id/void
func (h *PaymentHandler) Void(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	tx, err := h.payments.Void(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}
