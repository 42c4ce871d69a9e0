// Package sweeper periodically evicts expired entries from the balance
// cache.
package sweeper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/metrics"
)

// Sweeper runs the cache's sweep on a fixed interval. Reads are TTL-gated
// regardless; sweeping keeps long-running processes from accumulating dead
// entries.
type Sweeper struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a sweeper for the cache. The interval must be positive;
// callers that want sweeping disabled simply do not construct one.
func New(c *cache.TTLCache, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive (got %s)", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLogger(newGocronLoggerAdapter(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	s := &Sweeper{
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed := c.Sweep()
			remaining := c.Len()
			metrics.CacheEntries.Set(float64(remaining))
			if removed > 0 {
				logger.Debug("Swept expired cache entries", "removed", removed, "remaining", remaining)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep job: %w", err)
	}
	s.job = job

	return s, nil
}

// Start begins periodic sweeping
func (s *Sweeper) Start() {
	s.scheduler.Start()

	nextRun, err := s.job.NextRun()
	if err == nil {
		s.logger.Info("Cache sweeper started", "interval", s.interval, "next_run", nextRun.Format(time.RFC3339))
	} else {
		s.logger.Info("Cache sweeper started", "interval", s.interval)
	}
}

// Stop stops the sweeper gracefully
func (s *Sweeper) Stop() error {
	s.logger.Info("Stopping cache sweeper")
	return s.scheduler.Shutdown()
}

// gocronLoggerAdapter adapts slog.Logger to gocron.Logger interface
type gocronLoggerAdapter struct {
	logger *slog.Logger
}

func newGocronLoggerAdapter(logger *slog.Logger) gocron.Logger {
	return &gocronLoggerAdapter{logger: logger}
}

func (a *gocronLoggerAdapter) Debug(msg string, args ...any) {
	a.logger.Debug(msg, args...)
}

func (a *gocronLoggerAdapter) Info(msg string, args ...any) {
	a.logger.Info(msg, args...)
}

func (a *gocronLoggerAdapter) Warn(msg string, args ...any) {
	a.logger.Warn(msg, args...)
}

func (a *gocronLoggerAdapter) Error(msg string, args ...any) {
	a.logger.Error(msg, args...)
}
