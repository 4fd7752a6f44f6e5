package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/lifetime/internal/application/contactus"
	"github.com/erp/lifetime/internal/application/lifetime"
	partnerapp "github.com/erp/lifetime/internal/application/partner"
	paymentapp "github.com/erp/lifetime/internal/application/payment"
	tradeapp "github.com/erp/lifetime/internal/application/trade"
	"github.com/erp/lifetime/internal/domain/payment"
	"github.com/erp/lifetime/internal/infrastructure/cache"
	"github.com/erp/lifetime/internal/infrastructure/config"
	"github.com/erp/lifetime/internal/infrastructure/logger"
	"github.com/erp/lifetime/internal/infrastructure/persistence"
	"github.com/erp/lifetime/internal/infrastructure/telemetry"
	"github.com/erp/lifetime/internal/interfaces/http/handler"
	"github.com/erp/lifetime/internal/interfaces/http/middleware"
	"github.com/erp/lifetime/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

const drainSlowSQLThreshold = time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger for telemetry setup; replaced once the OTEL log core exists
	bootLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tp, mp, lp := setupTelemetry(ctx, cfg, bootLog)

	log, err := logger.New(
		logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output},
		logger.WithCore(telemetry.NewZapOTELCore(lp, logger.ParseLevel(cfg.Log.Level))),
	)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting lifetime service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// the drain reads every order of a customer and saves customers in one batch
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithPhaseSlowThreshold(logger.SQLPhaseDrain, drainSlowSQLThreshold),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		// Postgres schemas are managed by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	meter := mp.Meter("lifetime")
	lifetimeMetrics, err := telemetry.NewLifetimeMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create lifetime metrics", zap.Error(err))
	}

	// Lifetime recompute wiring
	rates := lifetime.NewRateConverter(cfg.Lifetime.BaseCurrency, cfg.Lifetime.Rates)
	status := lifetime.NewPaymentStatusService(payment.NewStatusProvider())
	processor := lifetime.NewLifetimeProcessor(status, rates, cfg.Lifetime.RequirePaidOrders)
	uows := persistence.NewGormUnitOfWorkFactory(db.DB, log,
		lifetime.NewListenerFactory(lifetime.ListenerConfig{
			ValueFields:       cfg.Lifetime.ValueFields,
			RequirePaidOrders: cfg.Lifetime.RequirePaidOrders,
		}, status, processor, log, lifetimeMetrics),
	)

	customerService := partnerapp.NewCustomerService(uows)
	orderService := tradeapp.NewSalesOrderService(uows)
	paymentService := paymentapp.NewPaymentTransactionService(uows)
	settingsService := contactus.NewSettingsService(cfg.ContactUs)
	log.Info("Contact-us settings loaded", zap.Bool("enable_contact_request", settingsService.ContactRequestEnabled()))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpMetrics, err := middleware.Metrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	idempotency, err := cache.NewIdempotencyStore(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotency.Close()
	}()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		httpMetrics,
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", healthHandler(db))

	router.NewRouter(engine, router.WithMiddleware(middleware.Idempotency(idempotency, cfg.Redis.IdempotencyTTL))).
		Register(
			handler.NewCustomerHandler(customerService),
			handler.NewSalesOrderHandler(orderService),
			handler.NewPaymentHandler(paymentService),
			handler.NewSettingsHandler(settingsService),
			handler.NewSystemHandler(cfg.App.Name, version),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// setupTelemetry starts the trace, metric and log exporters.
// Exporter failures are logged and fall back to no-op providers.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (
	*telemetry.TracerProvider, *telemetry.MeterProvider, *telemetry.LoggerProvider,
) {
	t := cfg.Telemetry

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
		tp, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, log)
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsExportInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics unavailable", zap.Error(err))
		mp, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export unavailable", zap.Error(err))
		lp, _ = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{}, log)
	}

	return tp, mp, lp
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		resp := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			resp["db_open_connections"] = stats.OpenConnections
			resp["db_in_use"] = stats.InUse
		}
		c.JSON(http.StatusOK, resp)
	}
}
