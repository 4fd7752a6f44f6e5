package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQL phases of a unit of work. Statements carry the phase of the
// context they were issued with.
const (
	// SQLPhaseFlush covers the writes of a flush and the lookups its listeners run before commit
	SQLPhaseFlush = "flush"
	// SQLPhaseDrain covers the lifetime recompute reads and the batched save after commit
	SQLPhaseDrain = "drain"
)

const sqlPhaseKey contextKey = "sql_phase"

// WithSQLPhase tags every statement run with the returned context as phase
func WithSQLPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, sqlPhaseKey, phase)
}

// SQLPhase returns the phase ctx was tagged with, or "" outside a unit of work
func SQLPhase(ctx context.Context) string {
	phase, _ := ctx.Value(sqlPhaseKey).(string)
	return phase
}

// GormLogger writes GORM statements to zap, labelled with the unit of work
// phase and request that issued them
type GormLogger struct {
	logger       *zap.Logger
	level        gormlogger.LogLevel
	slow         time.Duration
	phaseSlow    map[string]time.Duration
	skipNotFound bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is reported as slow.
// Zero turns slow statement warnings off.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slow = threshold
	}
}

// WithPhaseSlowThreshold overrides the slow threshold for one phase.
// Zero turns slow statement warnings off for that phase.
func WithPhaseSlowThreshold(phase string, threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.phaseSlow[phase] = threshold
	}
}

// WithIgnoreRecordNotFoundError drops lookups that found nothing from the error log
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.skipNotFound = ignore
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		logger:       zapLogger.Named("gorm"),
		level:        level,
		slow:         200 * time.Millisecond,
		phaseSlow:    make(map[string]time.Duration),
		skipNotFound: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

// Trace implements gormlogger.Interface. Failed statements are errors, slow
// ones warnings and the rest debug entries at the Info GORM level.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	phase := SQLPhase(ctx)
	lvl, msg, ok := l.classify(phase, elapsed, err)
	if !ok {
		return
	}
	ce := l.logger.Check(lvl, msg)
	if ce == nil {
		return
	}

	sql, rows := fc()
	fields := append(l.contextFields(ctx, phase),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

func (l *GormLogger) classify(phase string, elapsed time.Duration, err error) (zapcore.Level, string, bool) {
	if err != nil {
		if l.skipNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return 0, "", false
		}
		return zapcore.ErrorLevel, "SQL Error", true
	}
	if threshold := l.slowThreshold(phase); threshold > 0 && elapsed > threshold && l.level >= gormlogger.Warn {
		return zapcore.WarnLevel, fmt.Sprintf("SLOW SQL >= %v", threshold), true
	}
	if l.level >= gormlogger.Info {
		return zapcore.DebugLevel, "SQL Query", true
	}
	return 0, "", false
}

func (l *GormLogger) slowThreshold(phase string) time.Duration {
	if threshold, ok := l.phaseSlow[phase]; ok && phase != "" {
		return threshold
	}
	return l.slow
}

func (l *GormLogger) message(ctx context.Context, enabledAt gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < enabledAt {
		return
	}
	if ce := l.logger.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(l.contextFields(ctx, SQLPhase(ctx))...)
	}
}

func (l *GormLogger) contextFields(ctx context.Context, phase string) []zap.Field {
	var fields []zap.Field
	if phase != "" {
		fields = append(fields, zap.String("phase", phase))
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	return fields
}

// MapGormLogLevel maps string log level to GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
