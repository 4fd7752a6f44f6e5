package lifetime

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/lifetime/internal/application/unitofwork"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/erp/lifetime/internal/infrastructure/config"
	"github.com/erp/lifetime/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const drainMessage = "Customer lifetime values recomputed"

type harness struct {
	t       *testing.T
	db      *persistence.Database
	factory *persistence.GormUnitOfWorkFactory
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, cfg ListenerConfig) *harness {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	status := NewPaymentStatusService(nil)
	rates := NewRateConverter("USD", map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("1.10"),
	})
	processor := NewLifetimeProcessor(status, rates, cfg.RequirePaidOrders)
	factory := persistence.NewGormUnitOfWorkFactory(db.DB, logger,
		NewListenerFactory(cfg, status, processor, logger, nil),
	)

	return &harness{t: t, db: db, factory: factory, logs: logs}
}

// insert flushes one unit of work inserting the given aggregates
func (h *harness) insert(aggregates ...any) error {
	uow := h.factory.New()
	for _, a := range aggregates {
		switch v := a.(type) {
		case *partner.Customer:
			require.NoError(h.t, uow.Insert(v))
		case *trade.SalesOrder:
			require.NoError(h.t, uow.Insert(v))
		case *payment.PaymentTransaction:
			require.NoError(h.t, uow.Insert(v))
		}
	}
	return uow.Flush(context.Background())
}

func (h *harness) lifetime(id uuid.UUID) decimal.Decimal {
	customer, err := persistence.NewRepositories(h.db.DB).Customers().FindByID(context.Background(), id)
	require.NoError(h.t, err)
	return customer.Lifetime
}

func (h *harness) drains() []observer.LoggedEntry {
	return h.logs.FilterMessage(drainMessage).All()
}

func newCustomer(t *testing.T, code string) *partner.Customer {
	c, err := partner.NewCustomer(code, "Customer "+code)
	require.NoError(t, err)
	return c
}

func newOrder(t *testing.T, number string, customerID uuid.UUID, subtotal int64, currency string) *trade.SalesOrder {
	o, err := trade.NewSalesOrder(number, customerID, decimal.NewFromInt(subtotal), currency)
	require.NoError(t, err)
	return o
}

func newPayment(t *testing.T, order *trade.SalesOrder, action payment.Action, amount int64, successful bool) *payment.PaymentTransaction {
	tx, err := payment.NewPaymentTransaction(trade.EntityClass, order.ID, action, decimal.NewFromInt(amount), order.Currency)
	require.NoError(t, err)
	if successful {
		tx.MarkSuccessful("ref-" + uuid.NewString())
	}
	return tx
}

func assertLifetime(t *testing.T, h *harness, id uuid.UUID, want string) {
	t.Helper()
	got := h.lifetime(id)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "lifetime = %s, want %s", got, want)
}

func TestListener_PaidOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("unpaid order is not counted until a payment covers it", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-1")
		o := newOrder(t, "SO-1", c.ID, 100, "USD")

		require.NoError(t, h.insert(c, o))
		assertLifetime(t, h, c.ID, "0")
		assert.Empty(t, h.drains())

		require.NoError(t, h.insert(newPayment(t, o, payment.ActionCapture, 100, true)))
		assertLifetime(t, h, c.ID, "100")
		assert.Len(t, h.drains(), 1)
	})

	t.Run("partial payments schedule nothing until the order is fully paid", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-2")
		o := newOrder(t, "SO-2", c.ID, 100, "EUR")
		require.NoError(t, h.insert(c, o))

		require.NoError(t, h.insert(newPayment(t, o, payment.ActionCharge, 40, true)))
		assertLifetime(t, h, c.ID, "0")
		assert.Empty(t, h.drains())

		require.NoError(t, h.insert(newPayment(t, o, payment.ActionCharge, 60, true)))
		assertLifetime(t, h, c.ID, "110")
	})

	t.Run("transaction marked successful later triggers the recompute", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-3")
		o := newOrder(t, "SO-3", c.ID, 50, "USD")
		tx := newPayment(t, o, payment.ActionPurchase, 50, false)
		require.NoError(t, h.insert(c, o, tx))
		assertLifetime(t, h, c.ID, "0")

		tx.MarkSuccessful("gw-ok")
		uow := h.factory.New()
		require.NoError(t, uow.Update(tx))
		require.NoError(t, uow.Flush(ctx))

		assertLifetime(t, h, c.ID, "50")
	})

	t.Run("subtotal change of a paid order is recomputed", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-4")
		o := newOrder(t, "SO-4", c.ID, 100, "USD")
		require.NoError(t, h.insert(c, o, newPayment(t, o, payment.ActionCapture, 100, true)))
		assertLifetime(t, h, c.ID, "100")

		require.NoError(t, o.ChangeSubtotal(decimal.NewFromInt(80)))
		uow := h.factory.New()
		require.NoError(t, uow.Update(o))
		require.NoError(t, uow.Flush(ctx))

		assertLifetime(t, h, c.ID, "80")
	})

	t.Run("deleting a paid order removes its value", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-5")
		o := newOrder(t, "SO-5", c.ID, 70, "USD")
		require.NoError(t, h.insert(c, o, newPayment(t, o, payment.ActionCapture, 70, true)))
		assertLifetime(t, h, c.ID, "70")

		uow := h.factory.New()
		require.NoError(t, uow.Delete(o))
		require.NoError(t, uow.Flush(ctx))

		assertLifetime(t, h, c.ID, "0")
		assert.False(t, o.HasIdentity())
	})

	t.Run("cancelling a paid order removes its value", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-7")
		o := newOrder(t, "SO-7", c.ID, 60, "USD")
		require.NoError(t, h.insert(c, o, newPayment(t, o, payment.ActionCapture, 60, true)))
		assertLifetime(t, h, c.ID, "60")

		require.NoError(t, o.Cancel())
		uow := h.factory.New()
		require.NoError(t, uow.Update(o))
		require.NoError(t, uow.Flush(ctx))

		assertLifetime(t, h, c.ID, "0")
	})

	t.Run("missing exchange rate fails the flush after commit", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{RequirePaidOrders: true})
		c := newCustomer(t, "PAID-6")
		o := newOrder(t, "SO-6", c.ID, 10, "GBP")

		err := h.insert(c, o, newPayment(t, o, payment.ActionCapture, 10, true))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownCurrency)
		assertLifetime(t, h, c.ID, "0")
		assert.Equal(t, 1, h.logs.FilterMessage("Customer lifetime recompute failed").Len())
	})
}

func TestListener_AllOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("new owner in the same flush receives its value in memory", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		c := newCustomer(t, "ALL-1")
		o := newOrder(t, "SO-A1", c.ID, 25, "USD")

		require.NoError(t, h.insert(c, o))

		assert.True(t, c.Lifetime.Equal(decimal.NewFromInt(25)))
		assertLifetime(t, h, c.ID, "25")
	})

	t.Run("owner implicated many times is recomputed once", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		c := newCustomer(t, "ALL-2")
		require.NoError(t, h.insert(c))

		require.NoError(t, h.insert(
			newOrder(t, "SO-A2", c.ID, 10, "USD"),
			newOrder(t, "SO-A3", c.ID, 20, "USD"),
			newOrder(t, "SO-A4", c.ID, 30, "EUR"),
		))

		assertLifetime(t, h, c.ID, "63")
		drains := h.drains()
		require.Len(t, drains, 1)
		assert.Equal(t, int64(1), drains[0].ContextMap()["recomputed"])
		assert.Equal(t, int64(1), drains[0].ContextMap()["changed"])
	})

	t.Run("moving an order recomputes the old and the new owner", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		from, to := newCustomer(t, "ALL-3"), newCustomer(t, "ALL-4")
		o := newOrder(t, "SO-A5", from.ID, 40, "USD")
		require.NoError(t, h.insert(from, to, o))
		assertLifetime(t, h, from.ID, "40")

		require.NoError(t, o.ChangeCustomer(to.ID))
		uow := h.factory.New()
		require.NoError(t, uow.Update(o))
		require.NoError(t, uow.Flush(ctx))

		assertLifetime(t, h, from.ID, "0")
		assertLifetime(t, h, to.ID, "40")
	})

	t.Run("update outside the value fields does not recompute", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		c := newCustomer(t, "ALL-5")
		o := newOrder(t, "SO-A6", c.ID, 15, "USD")
		require.NoError(t, h.insert(c, o))
		require.Len(t, h.drains(), 1)

		require.NoError(t, o.Relabel("gift"))
		uow := h.factory.New()
		require.NoError(t, uow.Update(o))
		require.NoError(t, uow.Flush(ctx))

		assert.Len(t, h.drains(), 1)
	})

	t.Run("cancelled orders are not counted", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		c := newCustomer(t, "ALL-6")
		kept, cancelled := newOrder(t, "SO-A7", c.ID, 10, "USD"), newOrder(t, "SO-A8", c.ID, 90, "USD")
		require.NoError(t, cancelled.Cancel())
		require.NoError(t, h.insert(c, kept, cancelled))

		assertLifetime(t, h, c.ID, "10")
	})

	t.Run("owner deleted in the same flush is not recomputed", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{})
		c := newCustomer(t, "ALL-7")
		o := newOrder(t, "SO-A9", c.ID, 15, "USD")
		require.NoError(t, h.insert(c, o))
		before := len(h.drains())

		uow := h.factory.New()
		require.NoError(t, uow.Delete(o))
		require.NoError(t, uow.Delete(c))
		require.NoError(t, uow.Flush(ctx))

		assert.Len(t, h.drains(), before)
	})

	t.Run("unchanged value is not saved again", func(t *testing.T) {
		h := newHarness(t, ListenerConfig{
			ValueFields: []string{trade.FieldCustomer, trade.FieldSubtotalValue, trade.FieldLabel},
		})
		c := newCustomer(t, "ALL-8")
		o := newOrder(t, "SO-B1", c.ID, 15, "USD")
		require.NoError(t, h.insert(c, o))
		version := c.Version

		require.NoError(t, o.Relabel("rush"))
		uow := h.factory.New()
		require.NoError(t, uow.Update(o))
		require.NoError(t, uow.Flush(ctx))

		drains := h.drains()
		require.Len(t, drains, 2)
		assert.Equal(t, int64(1), drains[1].ContextMap()["recomputed"])
		assert.Equal(t, int64(0), drains[1].ContextMap()["changed"])
		assert.Equal(t, version, c.Version)
		assertLifetime(t, h, c.ID, "15")
	})
}

type failingListener struct {
	fail bool
}

func (f *failingListener) OnFlush(context.Context, *unitofwork.FlushEvent) error {
	if f.fail {
		return errors.New("rejected by audit")
	}
	return nil
}

func (f *failingListener) PostFlush(context.Context) error { return nil }
func (f *failingListener) OnAbort(context.Context)         {}

func TestListener_AbortDiscardsQueue(t *testing.T) {
	h := newHarness(t, ListenerConfig{})
	uow, ok := h.factory.New().(*persistence.GormUnitOfWork)
	require.True(t, ok)
	failing := &failingListener{fail: true}
	uow.AddListener(failing)

	c := newCustomer(t, "ABORT-1")
	require.NoError(t, uow.Insert(c))
	require.NoError(t, uow.Insert(newOrder(t, "SO-X1", c.ID, 99, "USD")))
	require.Error(t, uow.Flush(context.Background()))

	failing.fail = false
	require.NoError(t, uow.Insert(newCustomer(t, "ABORT-2")))
	require.NoError(t, uow.Flush(context.Background()))

	assert.Empty(t, h.drains())
	assert.True(t, c.Lifetime.IsZero())
	exists, err := persistence.NewRepositories(h.db.DB).Customers().ExistsByCode(context.Background(), "ABORT-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
