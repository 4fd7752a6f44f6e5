package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/domain/shared"
	"github.com/erp/lifetime/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentTransactionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormPaymentTransactionRepository(db.DB)
	orderID := uuid.New()

	capture, err := payment.NewPaymentTransaction(trade.EntityClass, orderID, payment.ActionCapture, decimal.NewFromInt(60), "USD")
	require.NoError(t, err)
	capture.MarkSuccessful("ch_1")
	refund, err := payment.NewPaymentTransaction(trade.EntityClass, orderID, payment.ActionRefund, decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	refund.CreatedAt = capture.CreatedAt.Add(time.Second)
	unrelated, err := payment.NewPaymentTransaction("invoice", orderID, payment.ActionCharge, decimal.NewFromInt(5), "USD")
	require.NoError(t, err)

	for _, tx := range []*payment.PaymentTransaction{capture, refund, unrelated} {
		require.NoError(t, repo.Save(ctx, tx))
	}

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, capture.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.ActionCapture, found.Action)
		assert.True(t, found.Successful)
		assert.True(t, found.Active)
		assert.Equal(t, "ch_1", found.Reference)
	})

	t.Run("find by entity", func(t *testing.T) {
		found, err := repo.FindByEntity(ctx, trade.EntityClass, orderID)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, capture.ID, found[0].ID)
		assert.Equal(t, refund.ID, found[1].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, unrelated.ID))
		_, err := repo.FindByID(ctx, unrelated.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
