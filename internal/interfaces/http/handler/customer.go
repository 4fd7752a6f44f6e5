package handler

import (
	"github.com/erp/lifetime/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer API endpoints
type CustomerHandler struct {
	BaseHandler
	customers *partner.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers *partner.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// RegisterRoutes registers the customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.POST("", h.Create)
	customers.GET("/:id", h.GetByID)
	customers.PATCH("/:id", h.Update)
	customers.DELETE("/:id", h.Delete)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partner.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID handles GET /customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update handles PATCH /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req partner.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete handles DELETE /customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
