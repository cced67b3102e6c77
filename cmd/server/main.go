package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/Motomboni/lifeway-emr-sub006/internal/application/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/audit"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/cache"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/config"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/event"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/logger"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/persistence"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/telemetry"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/handler"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/middleware"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.SamplingRatio)
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				log.Warn("failed to shut down tracer provider", zap.Error(err))
			}
		}()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	visitRepo := persistence.NewGormVisitRepository(db.DB)
	chargeRepo := persistence.NewGormChargeRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	walletRepo := persistence.NewGormWalletTransactionRepository(db.DB)
	coverageRepo := persistence.NewGormInsuranceCoverageRepository(db.DB)
	leakRepo := persistence.NewGormLeakRecordRepository(db.DB)
	reconRepo := persistence.NewGormReconciliationRepository(db.DB)
	consultationRepo := persistence.NewGormConsultationRepository(db.DB)
	actionRepo := persistence.NewGormActionRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)
	auditRecorder := audit.NewGormAuditRecorder(db.DB, log)

	// Idempotency store: Redis when configured, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		idempotencyStore = store
		log.Info("using redis idempotency store", zap.String("host", cfg.Redis.Host))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("failed to close idempotency store", zap.Error(err))
		}
	}()

	// Services
	ledgerService := appbilling.NewLedgerService(visitRepo, chargeRepo, paymentRepo, walletRepo, coverageRepo, nil, log)
	eventBus := event.NewInMemoryEventBus(log)
	pipelineService := appbilling.NewPaymentConfirmationService(txManager, visitRepo, chargeRepo, paymentRepo, ledgerService, eventBus, auditRecorder, log)
	leakService := appbilling.NewLeakDetectionService(actionRepo, chargeRepo, leakRepo, eventBus, auditRecorder, log)
	reconService := appbilling.NewReconciliationService(txManager, visitRepo, paymentRepo, walletRepo, reconRepo, ledgerService, leakService, eventBus, auditRecorder, log)

	// Payment confirmation side effects, deduplicated on event ID so
	// redelivery cannot double-apply them
	idempotencyConfig := shared.IdempotencyConfig{
		TTL:     cfg.Billing.IdempotencyTTL,
		Enabled: cfg.Billing.IdempotencyEnabled,
	}
	unlockHandler := event.NewIdempotentHandler(
		appbilling.NewConsultationUnlockHandler(consultationRepo, log),
		idempotencyStore, log,
		event.WithIdempotencyConfig(idempotencyConfig),
	)
	statusHandler := event.NewIdempotentHandler(
		appbilling.NewVisitStatusHandler(ledgerService, visitRepo, log),
		idempotencyStore, log,
		event.WithIdempotencyConfig(idempotencyConfig),
	)
	eventBus.Subscribe(unlockHandler)
	eventBus.Subscribe(statusHandler)
	eventBus.Subscribe(event.NewEventLogHandler(log))

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.ActorContext(),
		middleware.RequestLogger(log),
		middleware.CORS(),
	)

	router.NewRouter(engine).
		Register(handler.NewBillingHandler(ledgerService, pipelineService, log)).
		Register(handler.NewLeakHandler(leakService, log)).
		Register(handler.NewReconciliationHandler(reconService, log)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
