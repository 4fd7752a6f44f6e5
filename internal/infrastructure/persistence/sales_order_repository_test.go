package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSalesOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormSalesOrderRepository(db.DB)
	customerID := uuid.New()

	first, err := trade.NewSalesOrder("SO-001", customerID, decimal.NewFromInt(100), "usd")
	require.NoError(t, err)
	second, err := trade.NewSalesOrder("SO-002", customerID, decimal.RequireFromString("49.90"), "EUR")
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other, err := trade.NewSalesOrder("SO-003", uuid.New(), decimal.NewFromInt(5), "USD")
	require.NoError(t, err)

	for _, o := range []*trade.SalesOrder{first, second, other} {
		require.NoError(t, repo.Save(ctx, o))
	}

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "SO-001", found.OrderNumber)
		assert.Equal(t, "USD", found.Currency)
		assert.Equal(t, customerID, found.CustomerID)
		assert.Equal(t, trade.OrderStatusDraft, found.Status)
	})

	t.Run("find by id returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find by order number", func(t *testing.T) {
		found, err := repo.FindByOrderNumber(ctx, "SO-002")
		require.NoError(t, err)
		assert.True(t, found.SubtotalValue.Equal(decimal.RequireFromString("49.90")))
	})

	t.Run("find by customer", func(t *testing.T) {
		orders, err := repo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, first.ID, orders[0].ID)
		assert.Equal(t, second.ID, orders[1].ID)
	})

	t.Run("exists by order number", func(t *testing.T) {
		exists, err := repo.ExistsByOrderNumber(ctx, "SO-003")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByOrderNumber(ctx, "SO-404")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, other.ID))
		assert.ErrorIs(t, repo.Delete(ctx, other.ID), shared.ErrNotFound)
	})
}
