package lifetime

import (
	"context"
	"fmt"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// lifetimePrecision is the scale lifetime values are stored with
const lifetimePrecision = 4

// LifetimeProcessor computes a customer's lifetime sales value from committed orders
type LifetimeProcessor struct {
	status      *PaymentStatusService
	rates       *RateConverter
	requirePaid bool
}

// NewLifetimeProcessor creates a LifetimeProcessor. Cancelled orders never
// count. With requirePaid set only fully paid orders count.
func NewLifetimeProcessor(status *PaymentStatusService, rates *RateConverter, requirePaid bool) *LifetimeProcessor {
	return &LifetimeProcessor{status: status, rates: rates, requirePaid: requirePaid}
}

// CalculateLifetimeValue sums the subtotals of the customer's counted orders in the base currency
func (p *LifetimeProcessor) CalculateLifetimeValue(ctx context.Context, repos unitofwork.Repositories, customerID uuid.UUID) (decimal.Decimal, error) {
	orders, err := repos.SalesOrders().FindByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load orders of customer %s: %w", customerID, err)
	}

	total := decimal.Zero
	for _, order := range orders {
		if order.IsCancelled() {
			continue
		}
		if p.requirePaid {
			status, err := p.status.OrderStatus(ctx, repos, order, nil)
			if err != nil {
				return decimal.Zero, err
			}
			if status != payment.StatusFull {
				continue
			}
		}

		value, err := p.rates.Convert(order.SubtotalValue, order.Currency)
		if err != nil {
			return decimal.Zero, fmt.Errorf("order %s: %w", order.OrderNumber, err)
		}
		total = total.Add(value)
	}

	return total.Round(lifetimePrecision), nil
}
