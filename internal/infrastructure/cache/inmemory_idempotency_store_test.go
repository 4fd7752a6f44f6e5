package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/lifetime/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("second claim of a held key fails", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		defer s.Close()

		ok, err := s.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, _ = s.Claim(ctx, "k2", time.Minute)
		assert.True(t, ok)
	})

	t.Run("released keys can be claimed again", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		defer s.Close()

		_, _ = s.Claim(ctx, "k", time.Minute)
		require.NoError(t, s.Release(ctx, "k"))

		ok, _ := s.Claim(ctx, "k", time.Minute)
		assert.True(t, ok)
	})

	t.Run("expired keys are reclaimable and swept", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		defer s.Close()
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }

		_, _ = s.Claim(ctx, "old", time.Minute)
		_, _ = s.Claim(ctx, "fresh", time.Hour)
		now = now.Add(2 * time.Minute)

		ok, _ := s.Claim(ctx, "old", time.Minute)
		assert.True(t, ok)

		now = now.Add(2 * time.Minute)
		s.cleanup()
		assert.Equal(t, 1, s.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore()
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	})
}

func TestNewIdempotencyStore_InMemoryWhenRedisDisabled(t *testing.T) {
	store, err := NewIdempotencyStore(config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}
