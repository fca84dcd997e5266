package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hmahadik/traq/internal/domain/session"
)

// TickReport summarizes one runner pass.
type TickReport struct {
	Processed int
	Stored    int
	Discarded int
	Stale     int
	Failed    int
	Signals   int
	Skipped   bool
}

// shutdownGrace bounds how long a cancelled pass keeps committing drained observations.
const shutdownGrace = 5 * time.Second

// Runner drains the queue into the pipeline on a fixed interval.
// Passes never overlap; a slow pass delays the next one.
type Runner struct {
	pipeline *Pipeline
	queue    *Queue
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	running  atomic.Bool
}

// NewRunner creates a runner.
func NewRunner(p *Pipeline, q *Queue, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Runner{pipeline: p, queue: q, interval: interval, logger: logger, now: time.Now}
}

// Run loops until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("ingest runner started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			// flush what collectors already handed over
			rep := r.RunOnce(ctx)
			r.logger.Info("ingest runner stopped", "flushed", rep.Processed)
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce processes everything queued, then checks for idleness.
func (r *Runner) RunOnce(ctx context.Context) TickReport {
	if !r.running.CompareAndSwap(false, true) {
		return TickReport{Skipped: true}
	}
	defer r.running.Store(false)

	var rep TickReport
	work, cancel := ctx, context.CancelFunc(func() {})
	defer func() { cancel() }()
	// drained observations exist nowhere else, so a cancelled pass still finishes them
	detached := false
	detach := func() {
		if !detached && ctx.Err() != nil {
			work, cancel = context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
			detached = true
		}
	}
	for _, obs := range r.queue.Drain() {
		detach()
		rep.Processed++
		out, err := r.pipeline.Process(work, obs)
		switch {
		case errors.Is(err, session.ErrStaleEvent):
			rep.Stale++
			r.logger.Warn("stale observation rejected", "kind", obs.Kind(), "timestamp", obs.Timestamp(), "error", err)
		case err != nil:
			rep.Failed++
			r.logger.Error("observation failed", "kind", obs.Kind(), "timestamp", obs.Timestamp(), "error", err)
		case obs.Lock != nil:
			rep.Signals++
		case out.Stored:
			rep.Stored++
		default:
			rep.Discarded++
		}
	}

	detach()
	if _, err := r.pipeline.Tick(work, r.now()); err != nil {
		r.logger.Error("idle check failed", "error", err)
	}
	if rep.Processed > 0 {
		r.logger.Debug("ingest pass finished", "processed", rep.Processed, "stored", rep.Stored, "discarded", rep.Discarded, "stale", rep.Stale, "failed", rep.Failed)
	}
	return rep
}
