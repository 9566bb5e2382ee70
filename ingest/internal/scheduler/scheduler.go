// Package scheduler drives the hourly ingestion cycle.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Config configures the scheduler.
type Config struct {
	// Interval between cycles. Default: 1 hour.
	Interval time.Duration `yaml:"interval"`
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
}

// Cycle is the work executed on each tick.
type Cycle func(ctx context.Context) error

// Scheduler runs a Cycle on a fixed interval.
type Scheduler struct {
	cycle  Cycle
	config Config
	logger *slog.Logger
}

// New creates a Scheduler.
func New(cycle Cycle, cfg Config, logger *slog.Logger) *Scheduler {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cycle: cycle, config: cfg, logger: logger}
}

// Run executes one cycle immediately, then on every tick. Blocks until ctx
// is cancelled. A failed cycle is logged and the next tick proceeds.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	if err := s.cycle(ctx); err != nil {
		s.logger.Error("scheduler: cycle failed", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Debug("scheduler: cycle done", "elapsed", time.Since(start))
}
