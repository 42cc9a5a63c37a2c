// Package sweeper runs the scheduled retention sweep over the consent audit
// trail.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Sweep is the retention delete operation. Implemented by the consentlog
// service.
type Sweep interface {
	Sweep(ctx context.Context, retentionMonths int) (int64, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// Worker triggers one sweep per interval. Missed ticks are harmless: the
// delete predicate is pure age, so the next run catches up.
type Worker struct {
	svc             Sweep
	retentionMonths int
	logger          *slog.Logger
	interval        time.Duration
}

func New(svc Sweep, retentionMonths int, opts ...Option) *Worker {
	w := &Worker{
		svc:             svc,
		retentionMonths: retentionMonths,
		logger:          slog.Default(),
		interval:        24 * time.Hour,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the sweep loop until the context is cancelled. One sweep runs
// immediately so a long-stopped deployment does not wait a full interval to
// enforce retention.
func (w *Worker) Start(ctx context.Context) error {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("retention sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	start := time.Now()
	deleted, err := w.svc.Sweep(ctx, w.retentionMonths)
	duration := time.Since(start)

	if err != nil {
		w.logger.Error("retention_sweep_failed",
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}
	w.logger.Info("retention_sweep_completed",
		"deleted", deleted,
		"retention_months", w.retentionMonths,
		"duration_ms", duration.Milliseconds(),
	)
}
