// Package contactus exposes the contact-us feature settings.
package contactus

import (
	"github.com/erp/lifetime/internal/infrastructure/config"
)

// SettingsResponse represents the contact-us settings in API responses
type SettingsResponse struct {
	EnableContactRequest bool           `json:"enable_contact_request"`
	ConsentContactReason *int           `json:"consent_contact_reason"`
	Keys                 map[string]any `json:"keys"`
}

// SettingsService reads the contact-us settings
type SettingsService struct {
	cfg config.ContactUsConfig
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(cfg config.ContactUsConfig) *SettingsService {
	return &SettingsService{cfg: cfg}
}

// ContactRequestEnabled reports whether the contact request form is on
func (s *SettingsService) ContactRequestEnabled() bool {
	return s.cfg.EnableContactRequest
}

// Key returns the fully qualified key of a contact-us setting
func (s *SettingsService) Key(name, separator string) string {
	return s.cfg.Key(name, separator)
}

// Get returns the settings, with the fully qualified keys joined by separator
func (s *SettingsService) Get(separator string) SettingsResponse {
	return SettingsResponse{
		EnableContactRequest: s.cfg.EnableContactRequest,
		ConsentContactReason: s.cfg.ConsentContactReason,
		Keys:                 s.cfg.Settings(separator),
	}
}
