// Package schedule drives the recurring discovery runs and cache sweeps on
// fixed intervals.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"eventradar/internal/cache"
	"eventradar/internal/discovery"
	"eventradar/internal/run"
)

// Config sets the run cadence. Zero intervals disable the entry.
type Config struct {
	ComprehensiveEvery time.Duration
	QuickEvery         time.Duration
	SocialEvery        time.Duration
	CleanupEvery       time.Duration
	// InitialRun triggers one comprehensive run at startup instead of
	// waiting a full interval for the first results.
	InitialRun bool
	Timezone   *time.Location
}

// DefaultConfig mirrors the production cadence: comprehensive every 2h,
// quick every 1h, social every 90m, cache sweep every 6h.
func DefaultConfig() Config {
	return Config{
		ComprehensiveEvery: 2 * time.Hour,
		QuickEvery:         time.Hour,
		SocialEvery:        90 * time.Minute,
		CleanupEvery:       6 * time.Hour,
		InitialRun:         true,
		Timezone:           time.UTC,
	}
}

// Scheduler owns the cron instance and guards each run kind against
// overlapping executions.
type Scheduler struct {
	cron   *cron.Cron
	runner *run.Runner
	cache  *cache.Cache
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	running map[discovery.RunKind]bool
}

// New constructs a Scheduler.
func New(runner *run.Runner, respCache *cache.Cache, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if respCache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Timezone)),
		runner:  runner,
		cache:   respCache,
		cfg:     cfg,
		logger:  logger,
		running: make(map[discovery.RunKind]bool),
	}, nil
}

// Start registers the entries and starts the cron loop. ctx bounds every
// scheduled execution; canceling it does not stop the cron loop itself, call
// Stop for that.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := []struct {
		every time.Duration
		name  string
		job   func()
	}{
		{s.cfg.ComprehensiveEvery, "comprehensive", func() { s.runOnce(ctx, discovery.RunComprehensive) }},
		{s.cfg.QuickEvery, "quick", func() { s.runOnce(ctx, discovery.RunQuick) }},
		{s.cfg.SocialEvery, "social", func() { s.runOnce(ctx, discovery.RunSocial) }},
		{s.cfg.CleanupEvery, "cache-cleanup", func() { s.cleanup(ctx) }},
	}
	for _, entry := range entries {
		if entry.every <= 0 {
			s.logger.Info("schedule entry disabled", zap.String("entry", entry.name))
			continue
		}
		spec := fmt.Sprintf("@every %s", entry.every)
		if _, err := s.cron.AddFunc(spec, entry.job); err != nil {
			return fmt.Errorf("register %s schedule: %w", entry.name, err)
		}
		s.logger.Info("schedule entry registered",
			zap.String("entry", entry.name),
			zap.Duration("every", entry.every),
		)
	}

	s.cron.Start()
	if s.cfg.InitialRun {
		go s.runOnce(ctx, discovery.RunComprehensive)
	}
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runOnce executes one run of the kind unless one is already in flight.
func (s *Scheduler) runOnce(ctx context.Context, kind discovery.RunKind) {
	if !s.tryAcquire(kind) {
		s.logger.Warn("previous run still in flight, skipping", zap.String("kind", string(kind)))
		return
	}
	defer s.release(kind)

	if _, err := s.runner.Run(ctx, kind); err != nil {
		s.logger.Error("scheduled run failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// cleanup sweeps expired cache entries.
func (s *Scheduler) cleanup(ctx context.Context) {
	cleared, err := s.cache.ClearExpired(ctx)
	if err != nil {
		s.logger.Error("cache sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("cache sweep finished", zap.Int("cleared", cleared))
}

func (s *Scheduler) tryAcquire(kind discovery.RunKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[kind] {
		return false
	}
	s.running[kind] = true
	return true
}

func (s *Scheduler) release(kind discovery.RunKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[kind] = false
}
