package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contracts-backend/internal/bootstrap"
	"contracts-backend/internal/expiry"
	"contracts-backend/internal/shared/config"
	"contracts-backend/internal/shared/telemetry"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	sweeper := &expiry.Sweeper{
		Contracts:   app.ContractsService,
		Concurrency: cfg.SweepConcurrency,
	}

	telemetry.Info("worker.started", map[string]any{
		"interval":    cfg.SweepInterval.String(),
		"concurrency": cfg.SweepConcurrency,
	})
	run(ctx, sweeper, cfg.SweepInterval)
	telemetry.Info("worker.stopped", nil)
}

// run sweeps immediately and then on every tick until ctx is cancelled. A
// sweep in flight at shutdown gets defaultShutdownTimeout to finish.
func run(ctx context.Context, sweeper *expiry.Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweepOnce(ctx, sweeper)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, sweeper *expiry.Sweeper) {
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stopAfter := context.AfterFunc(ctx, func() {
		time.AfterFunc(defaultShutdownTimeout, cancel)
	})
	defer stopAfter()

	start := time.Now()
	res, err := sweeper.Sweep(sweepCtx)
	fields := map[string]any{
		"expired":     res.Expired,
		"skipped":     res.Skipped,
		"failed":      res.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.sweep_failed", fields)
		return
	}
	telemetry.Info("worker.sweep_completed", fields)
}
