package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{}, nil)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.NotNil(t, p.logger)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	t.Run("disabled plugin leaves callbacks alone", func(t *testing.T) {
		db, _ := newMockGorm(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())

		require.NoError(t, p.Register(db))
		assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
	})

	t.Run("enabled plugin records spans for queries", func(t *testing.T) {
		recorder := useSpanRecorder(t)
		db, mock := newMockGorm(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "postgresql", SlowQueryThresh: time.Nanosecond}, zap.NewNop())

		require.NoError(t, p.Register(db))
		assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		ctx, span := otel.Tracer("test").Start(context.Background(), "parent")
		var count int64
		require.NoError(t, db.WithContext(ctx).Table("customers").Count(&count).Error)
		span.End()

		assert.Equal(t, int64(3), count)
		assert.GreaterOrEqual(t, len(recorder.Ended()), 2)
	})
}
