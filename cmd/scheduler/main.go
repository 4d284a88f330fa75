package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditrepo "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/repository"
	auditservice "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	executionrepo "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"
	executionservice "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/scheduler"
	settingsrepo "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/repository"
	settingsservice "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/service"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/config"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/db"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "sweepInterval", cfg.PauseSweepInterval.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Watchdog auto-resumes publish transitions like any operator action;
	// the audit sink must be listening in this process too.
	auditservice.New(auditrepo.New(pool), log).RegisterHandlers(eventBus)

	// Worker-side execution wiring (no HTTP handlers required).
	settingsSvc := settingsservice.New(settingsrepo.New(pool), eventBus, log)
	executionSvc := executionservice.New(executionrepo.New(pool), settingsSvc, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, executionSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
