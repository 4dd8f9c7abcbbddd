package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/cache"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/config"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/event"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/handler"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/middleware"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.NewProviders(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog, zapcore.InfoLevel)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting bakery production service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		SpanProfiles:    cfg.Profiling.SpanProfiles,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithLockWaitThreshold(cfg.Telemetry.DBLockWaitThresh))
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:  gormLog,
		Plugins: []persistence.Plugin{dbTracing},
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	repos := persistence.NewGormRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	settings := cfg.Production.Settings()

	// The completion guard and the event dedup share one store
	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	productionMetrics, err := telemetry.NewProductionMetrics(telemetry.ProductionMetricsConfig{
		Meter:          providers.Meter("bakery.production"),
		Logger:         log,
		LedgerProvider: telemetry.NewGormLedgerMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create production metrics", zap.Error(err))
	}
	productionMetrics.StartPeriodicCollection(rootCtx, telemetry.NewGormTenantProvider(db.DB),
		cfg.Telemetry.LedgerMetricsInterval, 0)

	bus := event.NewInMemoryEventBus(log, event.Options{
		BufferSize: cfg.Event.BufferSize,
		Workers:    cfg.Event.Workers,
	})
	metricsHandler := event.NewIdempotentHandler(
		appprod.NewMetricsEventHandler(productionMetrics, log), store, time.Hour, log)
	bus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	if err := bus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	ledgerService := appprod.NewLedgerService(repos, txScope, bus, log)
	recipeService := appprod.NewRecipeService(repos, log)
	runService := appprod.NewRunService(repos, txScope, log)
	availabilityService := appprod.NewAvailabilityService(repos, log)
	allocationService := appprod.NewAllocationService(repos, txScope, bus, log)
	costService := appprod.NewCostService(repos, settings, log)
	completionService := appprod.NewCompletionService(repos, txScope, costService, store, bus, settings, log)

	productionHandler := handler.NewProductionHandler(runService, allocationService, completionService, costService)
	recipeHandler := handler.NewRecipeHandler(recipeService, availabilityService, costService)
	materialHandler := handler.NewMaterialHandler(ledgerService)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, sqlDB)
	systemHandler.AddProbe("database_pool", func() (any, error) { return db.Stats() })
	systemHandler.AddProbe("event_dedup", func() (any, error) { return metricsHandler.Stats(), nil })

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before logging, and the
	// tracing span must be open before anything records errors on it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Requests:  cfg.HTTP.RateLimitRequests,
			Window:    cfg.HTTP.RateLimitWindow,
			SkipPaths: []string{"/health", "/ready"},
		}, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.HTTPMetrics(providers.Meter("http.server")))
	engine.Use(middleware.Profiling(cfg.Profiling.Enabled, "/health", "/ready"))

	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.ProductionRoutes(productionHandler, recipeHandler, materialHandler).
		Use(middleware.Tenant(middleware.DefaultTenantConfig()), middleware.TraceAttributes()))
	r.Register(router.SystemRoutes(systemHandler))
	r.Setup()
	systemHandler.SetRoutes(r.Routes())

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

	<-rootCtx.Done()
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	productionMetrics.Stop()
	if err := store.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
