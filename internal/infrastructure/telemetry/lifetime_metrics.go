package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is created without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Drain outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// LifetimeMetrics tracks the recomputation of customer lifetime values.
// A nil *LifetimeMetrics records nothing.
type LifetimeMetrics struct {
	drains        *Counter
	recomputed    *Counter
	changed       *Counter
	drainDuration *Histogram
}

// NewLifetimeMetrics registers the lifetime instruments on meter
func NewLifetimeMetrics(meter metric.Meter) (*LifetimeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   LifetimeMetrics
		err error
	)
	if m.drains, err = NewCounter(meter, "erp_lifetime_drain_total", "Number of recompute queue drains", "{drains}"); err != nil {
		return nil, err
	}
	if m.recomputed, err = NewCounter(meter, "erp_lifetime_recomputed_total", "Number of customers whose lifetime value was recomputed", "{customers}"); err != nil {
		return nil, err
	}
	if m.changed, err = NewCounter(meter, "erp_lifetime_changed_total", "Number of customers whose lifetime value changed", "{customers}"); err != nil {
		return nil, err
	}
	if m.drainDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_lifetime_drain_duration_seconds",
		Description: "Duration of a recompute queue drain",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordDrain records one drain of the recompute queue
func (m *LifetimeMetrics) RecordDrain(ctx context.Context, recomputed, changed int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
	}
	m.drains.Inc(ctx, AttrOutcome.String(outcome))
	m.recomputed.Add(ctx, int64(recomputed))
	m.changed.Add(ctx, int64(changed))
	m.drainDuration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))
}
