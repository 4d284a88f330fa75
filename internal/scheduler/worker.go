package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/config"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper resumes orders whose pause outlived the snapshotted tolerance.
// The execution service implements it.
type Sweeper interface {
	SweepExpiredPauses(ctx context.Context) (int, error)
}

// Worker consumes scheduler tasks and drives the periodic sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	sweeper   Sweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	opt := redisClientOpt(cfg)

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
	})

	interval := cfg.GetPauseSweepInterval()
	periodic := asynq.NewScheduler(opt, nil)
	task, err := NewPauseToleranceSweepTask(PauseToleranceSweepPayload{TriggeredAt: time.Now()})
	if err != nil {
		return nil, err
	}
	if _, err := periodic.Register(fmt.Sprintf("@every %s", interval), task); err != nil {
		return nil, fmt.Errorf("register pause sweep: %w", err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: periodic,
		mux:       mux,
		sweeper:   sweeper,
		log:       log,
	}

	mux.HandleFunc(TaskPauseToleranceSweep, w.handlePauseToleranceSweep)

	return w, nil
}

func (w *Worker) handlePauseToleranceSweep(ctx context.Context, task *asynq.Task) error {
	if _, err := ParsePauseToleranceSweepPayload(task); err != nil {
		return err
	}

	resumed, err := w.sweeper.SweepExpiredPauses(ctx)
	if err != nil {
		return err
	}
	if resumed > 0 {
		w.log.Info("pause tolerance sweep resumed orders", "resumed", resumed)
	}
	return nil
}

// Run starts the periodic scheduler and the task server and blocks until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
