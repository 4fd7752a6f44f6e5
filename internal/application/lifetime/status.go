package lifetime

import (
	"context"
	"fmt"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/lifetime"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/trade"
)

// PaymentStatusService answers the payment status of sales orders
type PaymentStatusService struct {
	provider *payment.StatusProvider
}

// NewPaymentStatusService creates a PaymentStatusService
func NewPaymentStatusService(provider *payment.StatusProvider) *PaymentStatusService {
	if provider == nil {
		provider = payment.NewStatusProvider()
	}
	return &PaymentStatusService{provider: provider}
}

// OrderStatus returns the status of order once the pending transactions are
// laid over the transactions readable through repos
func (s *PaymentStatusService) OrderStatus(ctx context.Context, repos unitofwork.Repositories, order *trade.SalesOrder, pending []*payment.PaymentTransaction) (payment.Status, error) {
	committed, err := repos.PaymentTransactions().FindByEntity(ctx, trade.EntityClass, order.ID)
	if err != nil {
		return payment.StatusNone, fmt.Errorf("load transactions of order %s: %w", order.ID, err)
	}
	transactions := payment.MergeTransactions(committed, pending)
	return s.provider.ComputeStatus(order.SubtotalValue, order.Currency, transactions), nil
}

// flushLookup adapts the repositories of one flush to the classifier's collaborators
type flushLookup struct {
	repos  unitofwork.Repositories
	status *PaymentStatusService
}

// ResolveParent loads the sales order a payment transaction was made against
func (f flushLookup) ResolveParent(ctx context.Context, s lifetime.Secondary) (lifetime.Primary, error) {
	order, err := f.repos.SalesOrders().FindByID(ctx, s.ParentID())
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ComputeStatus returns the cumulative payment status of the parent order
func (f flushLookup) ComputeStatus(ctx context.Context, parent lifetime.Primary, pending []lifetime.Secondary) (lifetime.Status, error) {
	order, ok := parent.(*trade.SalesOrder)
	if !ok {
		return lifetime.StatusNone, fmt.Errorf("unsupported parent %T", parent)
	}

	transactions := make([]*payment.PaymentTransaction, 0, len(pending))
	for _, s := range pending {
		if t, ok := s.(*payment.PaymentTransaction); ok {
			transactions = append(transactions, t)
		}
	}

	status, err := f.status.OrderStatus(ctx, f.repos, order, transactions)
	if err != nil {
		return lifetime.StatusNone, err
	}
	return toLifetimeStatus(status), nil
}

// fullyPaid is the primary gate letting only fully paid orders through
func (f flushLookup) fullyPaid(ctx context.Context, p lifetime.Primary) (bool, error) {
	order, ok := p.(*trade.SalesOrder)
	if !ok {
		return true, nil
	}
	status, err := f.status.OrderStatus(ctx, f.repos, order, nil)
	if err != nil {
		return false, err
	}
	return status == payment.StatusFull, nil
}

func toLifetimeStatus(s payment.Status) lifetime.Status {
	switch s {
	case payment.StatusFull:
		return lifetime.StatusFull
	case payment.StatusPartial:
		return lifetime.StatusPartial
	default:
		return lifetime.StatusNone
	}
}
