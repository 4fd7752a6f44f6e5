package handler

import (
	"github.com/erp/lifetime/internal/application/contactus"
	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes read-only configuration to clients
type SettingsHandler struct {
	BaseHandler
	contactUs *contactus.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(contactUs *contactus.SettingsService) *SettingsHandler {
	return &SettingsHandler{contactUs: contactUs}
}

// RegisterRoutes registers the settings routes
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/contact-us", h.GetContactUs)
}

// GetContactUs handles GET /settings/contact-us?separator=
func (h *SettingsHandler) GetContactUs(c *gin.Context) {
	h.Success(c, h.contactUs.Get(c.Query("separator")))
}
