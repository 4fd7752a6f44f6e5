package config

// ContactUsSection is the settings tree section of the contact-us feature
const ContactUsSection = "contact_us"

// Contact-us setting names
const (
	SettingEnableContactRequest = "enable_contact_request"
	SettingConsentContactReason = "consent_contact_reason"
)

// DefaultKeySeparator joins a section and a setting name
const DefaultKeySeparator = "."

// ContactUsConfig holds the contact-us feature settings
type ContactUsConfig struct {
	// EnableContactRequest turns the contact request form on
	EnableContactRequest bool
	// ConsentContactReason is the contact reason recorded for consent requests, nil when unset
	ConsentContactReason *int
}

// Key returns the fully qualified settings key of a contact-us setting.
// An empty separator falls back to DefaultKeySeparator.
func (ContactUsConfig) Key(name, separator string) string {
	if separator == "" {
		separator = DefaultKeySeparator
	}
	return ContactUsSection + separator + name
}

// Settings returns the contact-us settings keyed by fully qualified key
func (c ContactUsConfig) Settings(separator string) map[string]any {
	var reason any
	if c.ConsentContactReason != nil {
		reason = *c.ConsentContactReason
	}
	return map[string]any{
		c.Key(SettingEnableContactRequest, separator): c.EnableContactRequest,
		c.Key(SettingConsentContactReason, separator): reason,
	}
}
