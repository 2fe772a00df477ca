package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/auth"
	"github.com/tradeflow/backend/internal/infrastructure/cache"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"github.com/tradeflow/backend/internal/infrastructure/event"
	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/infrastructure/migration"
	"github.com/tradeflow/backend/internal/infrastructure/persistence"
	"github.com/tradeflow/backend/internal/infrastructure/storage"
	"github.com/tradeflow/backend/internal/infrastructure/telemetry"
	"github.com/tradeflow/backend/internal/interfaces/http/handler"
	"github.com/tradeflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry providers. Each one is a no-op when disabled.
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = telemetry.Bridge(log, lp, serviceName, log.Level())

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: serviceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting trade workflow service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	dbPlugin, err := telemetry.NewDBPlugin(mp.Meter("tradeflow/db"), telemetry.DBConfig{
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		DBSystem:           dbSystem,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	defer func() {
		_ = dbPlugin.Close()
	}()

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.Open(ctx, &cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(dbPlugin),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := migrateSchema(db, cfg, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Coordination primitives: Redis when enabled, in-process otherwise
	cacheFactory := cache.NewFactory(cfg.Redis, cfg.Workflow,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	locker, err := cacheFactory.CreateLocker()
	if err != nil {
		log.Fatal("Failed to create trade locker", zap.Error(err))
	}
	idempotencyStore, err := cacheFactory.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var jwtService *auth.JWTService
	var revocations auth.RevocationList
	if cfg.JWT.Enabled {
		jwtService, err = auth.NewJWTService(cfg.JWT)
		if err != nil {
			log.Fatal("Failed to create JWT service", zap.Error(err))
		}
		revocations, err = cacheFactory.CreateRevocationList()
		if err != nil {
			log.Fatal("Failed to create revocation list", zap.Error(err))
		}
	}

	// Domain events feed the audit trail and the workflow metrics
	bus := event.NewInMemoryEventBus(log)
	auditRepo := persistence.NewGormAuditEventRepository(db.DB)
	auditEmitter := event.NewAuditEmitter(auditRepo, cfg.Workflow.AuditBufferSize, log)
	bus.Subscribe(auditEmitter)

	workflowMetrics, err := telemetry.NewWorkflowMetrics(mp.Meter("tradeflow/workflow"), profiler.IsEnabled())
	if err != nil {
		log.Fatal("Failed to create workflow metrics", zap.Error(err))
	}
	bus.Subscribe(workflowMetrics)

	archive, err := newBundleArchive(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize proof archive", zap.Error(err))
	}

	hasher, err := proof.HasherFor(cfg.Workflow.HashAlgorithm)
	if err != nil {
		log.Fatal("Invalid hash algorithm", zap.Error(err))
	}

	// Application services
	repos := persistence.NewRepositories(db.DB)
	uow := persistence.NewGormTransactionScope(db.DB)
	random := shared.NewRandomSource()
	workflowCfg := workflow.Config{StepDelay: cfg.Workflow.StepDelay}

	tradeService := workflow.NewTradeService(repos, log)
	complianceService := workflow.NewComplianceService(repos, uow, locker, compliance.DefaultPolicy(), workflowCfg, log)
	financeService := workflow.NewFinanceService(repos, uow, locker, finance.NewQuoter(nil, random), log)
	paymentService := workflow.NewPaymentService(repos, uow, locker,
		payment.NewPlanner(nil, random),
		workflow.SimulatedHopExecutor{
			Latency:     cfg.Workflow.HopLatency,
			FailureRate: cfg.Workflow.HopFailureRate,
			Random:      random,
		},
		random, workflowCfg, log,
	)
	proofService := workflow.NewProofService(repos, uow, locker, hasher, log)
	proofService.SetArchive(archive)
	auditService := workflow.NewAuditService(auditRepo)

	tradeService.SetEventPublisher(bus)
	for _, s := range []interface {
		SetEventPublisher(shared.EventPublisher)
		SetObserver(workflow.StageObserver)
	}{complianceService, financeService, paymentService, proofService} {
		s.SetEventPublisher(bus)
		s.SetObserver(workflowMetrics)
	}

	// Health checks
	checks := map[string]handler.Pinger{
		"database": db,
	}
	if cfg.Redis.Enabled {
		checks["redis"] = cacheFactory
	}

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:      serviceName,
		HTTP:             cfg.HTTP,
		Logger:           log,
		Meter:            mp.Meter("tradeflow/http"),
		TracerProvider:   tp.Provider(),
		ProfilingEnabled: profiler.IsEnabled(),
		JWT:              jwtService,
		Revocations:      revocations,
		Idempotency:      idempotencyStore,
	}, router.Handlers{
		Trade:      handler.NewTradeHandler(tradeService),
		Compliance: handler.NewComplianceHandler(complianceService),
		Finance:    handler.NewFinanceHandler(financeService),
		Payment:    handler.NewPaymentHandler(paymentService),
		Proof:      handler.NewProofHandler(proofService),
		Audit:      handler.NewAuditHandler(auditService),
		System:     handler.NewSystemHandler(cfg.App.Name, version, checks),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
	if err := auditEmitter.Close(shutdownCtx); err != nil {
		log.Error("Audit trail not fully flushed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations on postgres. sqlite and
// explicit auto-migrate setups create tables from the models instead.
func migrateSchema(db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	if cfg.Database.AutoMigrate || cfg.Database.Driver == "sqlite" {
		log.Info("Creating schema from models")
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newBundleArchive returns the S3 archive when storage is enabled and an
// in-memory archive otherwise
func newBundleArchive(cfg *config.Config, log *zap.Logger) (workflow.BundleArchive, error) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, archiving proof bundles in memory")
		return storage.NewMemoryArchive(), nil
	}
	archive, err := storage.NewS3BundleArchive(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Proof archive ready", zap.String("bucket", archive.Bucket()))
	return archive, nil
}
