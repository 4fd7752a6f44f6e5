package trade

import (
	"context"
	"testing"

	"github.com/erp/lifetime/internal/application/lifetime"
	"github.com/erp/lifetime/internal/domain/partner"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/infrastructure/config"
	"github.com/erp/lifetime/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	service *SalesOrderService
	repos   interface {
		Customers() partner.CustomerRepository
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	status := lifetime.NewPaymentStatusService(nil)
	processor := lifetime.NewLifetimeProcessor(status, lifetime.NewRateConverter("USD", nil), false)
	factory := persistence.NewGormUnitOfWorkFactory(db.DB, zap.NewNop(),
		lifetime.NewListenerFactory(lifetime.ListenerConfig{}, status, processor, zap.NewNop(), nil),
	)
	return &fixture{service: NewSalesOrderService(factory), repos: persistence.NewRepositories(db.DB)}
}

func (f *fixture) customer(t *testing.T, code string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(code, code)
	require.NoError(t, err)
	require.NoError(t, f.repos.Customers().Save(context.Background(), c))
	return c
}

func (f *fixture) lifetime(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	c, err := f.repos.Customers().FindByID(context.Background(), id)
	require.NoError(t, err)
	return c.Lifetime
}

func TestSalesOrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the order and updates the customer lifetime", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "C1")

		resp, err := f.service.Create(ctx, CreateSalesOrderRequest{
			OrderNumber: "SO-1",
			CustomerID:  c.ID,
			Subtotal:    decimal.NewFromInt(120),
			Currency:    "usd",
			Label:       "first",
		})

		require.NoError(t, err)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, "first", resp.Label)
		assert.True(t, f.lifetime(t, c.ID).Equal(decimal.NewFromInt(120)))
	})

	t.Run("unknown customer is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, CreateSalesOrderRequest{
			OrderNumber: "SO-2", CustomerID: uuid.New(), Subtotal: decimal.NewFromInt(1), Currency: "USD",
		})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("duplicate order number is rejected", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "C3")
		req := CreateSalesOrderRequest{OrderNumber: "SO-3", CustomerID: c.ID, Subtotal: decimal.NewFromInt(1), Currency: "USD"}
		_, err := f.service.Create(ctx, req)
		require.NoError(t, err)

		_, err = f.service.Create(ctx, req)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})
}

func TestSalesOrderService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from, to := f.customer(t, "FROM"), f.customer(t, "TO")
	created, err := f.service.Create(ctx, CreateSalesOrderRequest{
		OrderNumber: "SO-U1", CustomerID: from.ID, Subtotal: decimal.NewFromInt(50), Currency: "USD",
	})
	require.NoError(t, err)

	subtotal := decimal.NewFromInt(75)
	updated, err := f.service.Update(ctx, created.ID, UpdateSalesOrderRequest{CustomerID: &to.ID, Subtotal: &subtotal})
	require.NoError(t, err)

	assert.Equal(t, to.ID, updated.CustomerID)
	assert.True(t, f.lifetime(t, from.ID).IsZero())
	assert.True(t, f.lifetime(t, to.ID).Equal(subtotal))

	orders, err := f.service.ListByCustomer(ctx, to.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	missing := uuid.New()
	_, err = f.service.Update(ctx, created.ID, UpdateSalesOrderRequest{CustomerID: &missing})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestSalesOrderService_CancelAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.customer(t, "CANCEL")
	kept, err := f.service.Create(ctx, CreateSalesOrderRequest{
		OrderNumber: "SO-K", CustomerID: c.ID, Subtotal: decimal.NewFromInt(10), Currency: "USD",
	})
	require.NoError(t, err)
	dropped, err := f.service.Create(ctx, CreateSalesOrderRequest{
		OrderNumber: "SO-D", CustomerID: c.ID, Subtotal: decimal.NewFromInt(30), Currency: "USD",
	})
	require.NoError(t, err)
	require.True(t, f.lifetime(t, c.ID).Equal(decimal.NewFromInt(40)))

	cancelled, err := f.service.Cancel(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.True(t, f.lifetime(t, c.ID).Equal(decimal.NewFromInt(30)))

	require.NoError(t, f.service.Delete(ctx, dropped.ID))
	assert.True(t, f.lifetime(t, c.ID).IsZero())

	_, err = f.service.GetByID(ctx, dropped.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
