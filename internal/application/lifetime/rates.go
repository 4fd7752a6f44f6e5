package lifetime

import (
	"fmt"
	"strings"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate is configured for a currency
var ErrUnknownCurrency = shared.NewDomainError("UNKNOWN_CURRENCY", "No exchange rate configured for currency")

// RateConverter converts amounts into the base currency using fixed rates
type RateConverter struct {
	base  string
	rates map[string]decimal.Decimal
}

// NewRateConverter creates a RateConverter. Each rate converts one unit of
// its currency into base; the base currency itself always converts at 1.
func NewRateConverter(base string, rates map[string]decimal.Decimal) *RateConverter {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for currency, rate := range rates {
		normalized[strings.ToUpper(currency)] = rate
	}
	return &RateConverter{base: strings.ToUpper(base), rates: normalized}
}

// BaseCurrency returns the currency converted amounts are expressed in
func (c *RateConverter) BaseCurrency() string {
	return c.base
}

// Convert returns amount expressed in the base currency
func (c *RateConverter) Convert(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(currency)
	if currency == c.base {
		return amount, nil
	}
	rate, ok := c.rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
	return amount.Mul(rate), nil
}
