package project

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultAutosaveInterval = 2 * time.Second

// Saver is the part of the service the autosave runner drives.
type Saver interface {
	SaveDirty(ctx context.Context) (int, error)
}

// Runner periodically writes dirty projects back to storage.
type Runner struct {
	saver    Saver
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
	paused   atomic.Bool
	saves    atomic.Int64
}

func NewRunner(saver Saver, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Runner{
		saver:    saver,
		logger:   logger,
		interval: interval,
	}
}

// Start blocks until ctx is done. It returns immediately if already running.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("autosave runner started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("autosave runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.saveDirty(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("autosave paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("autosave resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// SaveCount is the number of project writes performed so far.
func (r *Runner) SaveCount() int64 {
	return r.saves.Load()
}

// Flush saves dirty projects now, even while paused. Used on shutdown.
func (r *Runner) Flush(ctx context.Context) error {
	n, err := r.saver.SaveDirty(ctx)
	r.saves.Add(int64(n))
	if n > 0 {
		r.logger.Info("flushed projects", "count", n)
	}
	return err
}

func (r *Runner) saveDirty(ctx context.Context) {
	n, err := r.saver.SaveDirty(ctx)
	r.saves.Add(int64(n))
	if err != nil {
		r.logger.Error("autosave failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.Debug("autosaved projects", "count", n)
	}
}
