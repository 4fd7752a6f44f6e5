// Package lifetime keeps customer lifetime values in step with their orders
// and payments by hooking into unit of work flushes.
package lifetime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/lifetime"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/trade"
	applog "github.com/erp/lifetime/internal/infrastructure/logger"
	"github.com/erp/lifetime/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ListenerConfig configures the customer lifetime listener
type ListenerConfig struct {
	// ValueFields are the sales order fields whose update triggers recomputation.
	// Empty keeps the classifier defaults. The status field is always added.
	ValueFields []string
	// RequirePaidOrders only considers order mutations of fully paid orders
	RequirePaidOrders bool
}

// CustomerLifetimeListener collects the customers implicated by a flush and
// recomputes their lifetime value once the flush has committed
type CustomerLifetimeListener struct {
	uow       unitofwork.UnitOfWork
	queue     *lifetime.Queue
	config    ListenerConfig
	status    *PaymentStatusService
	processor *LifetimeProcessor
	logger    *zap.Logger
	metrics   *telemetry.LifetimeMetrics
}

// NewCustomerLifetimeListener creates a listener bound to uow
func NewCustomerLifetimeListener(
	uow unitofwork.UnitOfWork,
	cfg ListenerConfig,
	status *PaymentStatusService,
	processor *LifetimeProcessor,
	logger *zap.Logger,
	metrics *telemetry.LifetimeMetrics,
) *CustomerLifetimeListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerLifetimeListener{
		uow:       uow,
		queue:     lifetime.NewQueue(),
		config:    cfg,
		status:    status,
		processor: processor,
		logger:    logger,
		metrics:   metrics,
	}
}

// NewListenerFactory returns a factory creating one listener per unit of work
func NewListenerFactory(
	cfg ListenerConfig,
	status *PaymentStatusService,
	processor *LifetimeProcessor,
	logger *zap.Logger,
	metrics *telemetry.LifetimeMetrics,
) unitofwork.ListenerFactory {
	return func(uow unitofwork.UnitOfWork) unitofwork.Listener {
		return NewCustomerLifetimeListener(uow, cfg, status, processor, logger, metrics)
	}
}

// OnFlush classifies the flush and queues the implicated customers.
// Flushes issued while the queue persists its own results are ignored.
func (l *CustomerLifetimeListener) OnFlush(ctx context.Context, event *unitofwork.FlushEvent) error {
	if l.queue.InProgress() {
		return nil
	}

	ids, err := l.classifier(event.Repos).Classify(ctx, event.Mutations)
	if err != nil {
		return fmt.Errorf("classify flush: %w", err)
	}

	missing := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if event.IsScheduledForDelete(id) || l.queue.Contains(id) {
			continue
		}
		if entity, ok := event.Entity(id); ok {
			if customer, ok := entity.(*partner.Customer); ok {
				l.queue.Enqueue(customer)
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		customers, err := event.Repos.Customers().FindByIDs(ctx, missing)
		if err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
		for _, customer := range customers {
			l.queue.Enqueue(customer)
		}
	}

	if l.queue.Len() > 0 {
		l.logger.Debug("Customers queued for lifetime recompute",
			zap.Int("queued", l.queue.Len()),
			zap.Int("mutations", len(event.Mutations)),
		)
	}
	return nil
}

// PostFlush recomputes the queued customers and saves the changed ones in one flush
func (l *CustomerLifetimeListener) PostFlush(ctx context.Context) error {
	if l.queue.InProgress() || l.queue.Len() == 0 {
		return nil
	}

	ctx = applog.WithSQLPhase(ctx, applog.SQLPhaseDrain)
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_lifetime", "drain",
		telemetry.SpanAttrQueued, l.queue.Len(),
	)
	defer span.End()

	start := time.Now()
	repos := l.uow.Repositories()
	recompute := func(ctx context.Context, owner lifetime.Owner) (decimal.Decimal, error) {
		return l.processor.CalculateLifetimeValue(ctx, repos, owner.GetID())
	}

	result, err := l.queue.DrainAndRecompute(ctx, recompute, l.persist)
	elapsed := time.Since(start)
	l.metrics.RecordDrain(ctx, result.Recomputed, result.Changed, elapsed, err)

	if err != nil {
		telemetry.RecordError(span, err)
		l.logger.Error("Customer lifetime recompute failed",
			zap.Int("queued", result.Queued),
			zap.Error(err),
		)
		return fmt.Errorf("recompute customer lifetime: %w", err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrChanged, result.Changed)
	telemetry.SetOK(span)
	l.logger.Info("Customer lifetime values recomputed",
		zap.Int("queued", result.Queued),
		zap.Int("skipped", result.Skipped),
		zap.Int("recomputed", result.Recomputed),
		zap.Int("changed", result.Changed),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// OnAbort drops the queue of a rolled back flush
func (l *CustomerLifetimeListener) OnAbort(context.Context) {
	if l.queue.InProgress() {
		return
	}
	if n := l.queue.Len(); n > 0 {
		l.logger.Debug("Flush aborted, discarding lifetime recompute queue", zap.Int("queued", n))
	}
	l.queue.Discard()
}

// persist saves the changed customers through the unit of work in a single flush
func (l *CustomerLifetimeListener) persist(ctx context.Context, owners []lifetime.Owner) error {
	for _, owner := range owners {
		customer, ok := owner.(*partner.Customer)
		if !ok {
			return fmt.Errorf("unsupported owner %T", owner)
		}
		if err := l.uow.Update(customer); err != nil {
			return err
		}
	}
	return l.uow.Flush(ctx)
}

func (l *CustomerLifetimeListener) classifier(repos unitofwork.Repositories) *lifetime.Classifier {
	lookup := flushLookup{repos: repos, status: l.status}

	fields := l.config.ValueFields
	if len(fields) == 0 {
		fields = []string{lifetime.DefaultOwnerField, lifetime.DefaultSubtotalField}
	}

	// cancelling an order removes it from the total
	if !slices.Contains(fields, trade.FieldStatus) {
		fields = append(slices.Clone(fields), trade.FieldStatus)
	}

	var opts []lifetime.ClassifierOption
	if l.config.RequirePaidOrders {
		opts = append(opts, lifetime.WithPrimaryGate(lookup.fullyPaid))
	}
	opts = append(opts, lifetime.WithValueFields(fields...))
	return lifetime.NewClassifier(lookup, lookup, opts...)
}

var _ unitofwork.Listener = (*CustomerLifetimeListener)(nil)
