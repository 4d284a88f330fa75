package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution"
	apphttp "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/http/router"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/scheduler"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/config"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/db"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	registryModule := registry.NewModule(pool, val, log)
	settingsModule := settings.NewModule(pool, eventBus, val, log)
	ordersModule := orders.NewModule(pool, settingsModule.Service(), eventBus, val, log)
	executionModule := execution.NewModule(pool, settingsModule.Service(), eventBus, val, log)

	// Order reads decorate the persisted status with the execution-derived
	// overlay (breaks circular dependency via setter injection).
	ordersModule.SetOverlaySource(executionModule.Service())

	// Audit module subscribes to domain events and appends the trail.
	auditModule := audit.NewModule(pool, eventBus, log)

	// Operator-triggered sweeps go through the asynq queue when Redis is up.
	sweepClient := scheduler.NewClient(cfg)
	defer func() { _ = sweepClient.Close() }()
	executionModule.SetSweepEnqueuer(sweepClient)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			registryModule,
			settingsModule,
			ordersModule,
			executionModule,
			auditModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
