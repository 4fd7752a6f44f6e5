package payment

import (
	"context"
	"testing"

	"github.com/erp/lifetime/internal/application/lifetime"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/erp/lifetime/internal/infrastructure/config"
	"github.com/erp/lifetime/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*PaymentTransactionService, *gorm.DB) {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	status := lifetime.NewPaymentStatusService(nil)
	processor := lifetime.NewLifetimeProcessor(status, lifetime.NewRateConverter("USD", nil), true)
	factory := persistence.NewGormUnitOfWorkFactory(db.DB, zap.NewNop(),
		lifetime.NewListenerFactory(lifetime.ListenerConfig{RequirePaidOrders: true}, status, processor, zap.NewNop(), nil),
	)
	return NewPaymentTransactionService(factory), db.DB
}

func seedOrder(t *testing.T, db *gorm.DB, subtotal int64) (*partner.Customer, *trade.SalesOrder) {
	t.Helper()
	ctx := context.Background()
	repos := persistence.NewRepositories(db)

	c, err := partner.NewCustomer("PAYER-"+uuid.NewString()[:8], "Payer")
	require.NoError(t, err)
	require.NoError(t, repos.Customers().Save(ctx, c))
	o, err := trade.NewSalesOrder("SO-"+uuid.NewString()[:8], c.ID, decimal.NewFromInt(subtotal), "USD")
	require.NoError(t, err)
	require.NoError(t, repos.SalesOrders().Save(ctx, o))
	return c, o
}

func lifetimeOf(t *testing.T, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	c, err := persistence.NewRepositories(db).Customers().FindByID(context.Background(), id)
	require.NoError(t, err)
	return c.Lifetime
}

func TestPaymentTransactionService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("successful capture covering the order updates the lifetime", func(t *testing.T) {
		service, db := setup(t)
		c, o := seedOrder(t, db, 80)

		resp, err := service.Record(ctx, RecordTransactionRequest{
			EntityID: o.ID, Action: "capture", Amount: decimal.NewFromInt(80), Currency: "USD", Successful: true, Reference: "gw-1",
		})

		require.NoError(t, err)
		assert.Equal(t, trade.EntityClass, resp.EntityClass)
		assert.True(t, resp.Successful)
		assert.True(t, lifetimeOf(t, db, c.ID).Equal(decimal.NewFromInt(80)))
	})

	t.Run("pending transaction completes once marked successful", func(t *testing.T) {
		service, db := setup(t)
		c, o := seedOrder(t, db, 25)

		pending, err := service.Record(ctx, RecordTransactionRequest{
			EntityID: o.ID, Action: "purchase", Amount: decimal.NewFromInt(25), Currency: "USD",
		})
		require.NoError(t, err)
		assert.True(t, lifetimeOf(t, db, c.ID).IsZero())

		done, err := service.RecordResult(ctx, pending.ID, TransactionResultRequest{Successful: true, Reference: "gw-2"})
		require.NoError(t, err)
		assert.Equal(t, "gw-2", done.Reference)
		assert.True(t, lifetimeOf(t, db, c.ID).Equal(decimal.NewFromInt(25)))

		list, err := service.ListByOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("unknown order is rejected", func(t *testing.T) {
		service, _ := setup(t)
		_, err := service.Record(ctx, RecordTransactionRequest{
			EntityID: uuid.New(), Action: "capture", Amount: decimal.NewFromInt(1), Currency: "USD",
		})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("other entity classes are recorded without lookup", func(t *testing.T) {
		service, _ := setup(t)
		resp, err := service.Record(ctx, RecordTransactionRequest{
			EntityClass: "invoice", EntityID: uuid.New(), Action: "charge", Amount: decimal.NewFromInt(5), Currency: "EUR",
		})
		require.NoError(t, err)
		assert.Equal(t, "invoice", resp.EntityClass)
	})

	t.Run("invalid amount is a domain error", func(t *testing.T) {
		service, db := setup(t)
		_, o := seedOrder(t, db, 10)
		_, err := service.Record(ctx, RecordTransactionRequest{
			EntityID: o.ID, Action: "capture", Amount: decimal.Zero, Currency: "USD",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})
}

func TestPaymentTransactionService_Void(t *testing.T) {
	ctx := context.Background()
	service, db := setup(t)
	_, o := seedOrder(t, db, 10)
	tx, err := service.Record(ctx, RecordTransactionRequest{
		EntityID: o.ID, Action: "capture", Amount: decimal.NewFromInt(10), Currency: "USD", Successful: true,
	})
	require.NoError(t, err)

	voided, err := service.Void(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, voided.Active)

	found, err := service.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	_, err = service.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
