// Package run orchestrates one discovery pipeline run: check quota, derive a
// call budget, select queries, answer from cache where possible, spend quota
// on the rest, and push parsed records through the dedup gate.
package run

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"eventradar/internal/archive"
	"eventradar/internal/cache"
	"eventradar/internal/catalog"
	"eventradar/internal/discovery"
	"eventradar/internal/ingest"
	"eventradar/internal/metrics"
	"eventradar/internal/quota"
	"eventradar/internal/selector"
)

// Source is a query backend: it fetches raw payloads and parses them into
// event records. Parsing is separate from fetching so cached payloads can be
// re-parsed without an external call.
type Source interface {
	discovery.Fetcher
	discovery.Parser
}

// Config bounds runner behavior.
type Config struct {
	// Ceilings caps calls per run kind regardless of what the allocation
	// plan offers.
	Ceilings map[discovery.RunKind]int
	// Delay is the minimum spacing between external calls.
	Delay time.Duration
	// Topic receives the run report when a publisher is wired.
	Topic string
}

// DefaultCeilings mirror the production schedule: comprehensive runs may use
// up to 15 calls, quick runs 3, social runs 4.
func DefaultCeilings() map[discovery.RunKind]int {
	return map[discovery.RunKind]int{
		discovery.RunComprehensive: 15,
		discovery.RunQuick:         3,
		discovery.RunSocial:        4,
	}
}

// Deps are the runner's collaborators. Ledger, Allocator, Selector, Catalog,
// Cache, Gate, IDs, Clock, and at least one source are required; Publisher
// and Archive are optional.
type Deps struct {
	Ledger    *quota.Ledger
	Allocator *quota.Allocator
	Selector  *selector.Selector
	Catalog   *catalog.Catalog
	Cache     *cache.Cache
	Gate      *ingest.Gate
	Sources   map[discovery.QueryKind]Source
	Publisher discovery.Publisher
	Archive   archive.Provider
	IDs       discovery.IDGenerator
	Clock     discovery.Clock
	Logger    *zap.Logger
}

// Runner executes discovery runs.
type Runner struct {
	deps    Deps
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs a Runner.
func New(deps Deps, cfg Config) (*Runner, error) {
	switch {
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger is required")
	case deps.Allocator == nil:
		return nil, fmt.Errorf("allocator is required")
	case deps.Selector == nil:
		return nil, fmt.Errorf("selector is required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog is required")
	case deps.Cache == nil:
		return nil, fmt.Errorf("cache is required")
	case deps.Gate == nil:
		return nil, fmt.Errorf("gate is required")
	case len(deps.Sources) == 0:
		return nil, fmt.Errorf("at least one source is required")
	case deps.IDs == nil:
		return nil, fmt.Errorf("id generator is required")
	case deps.Clock == nil:
		return nil, fmt.Errorf("clock is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Ceilings == nil {
		cfg.Ceilings = DefaultCeilings()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}
	return &Runner{deps: deps, cfg: cfg, limiter: limiter, logger: deps.Logger}, nil
}

// Run executes one pipeline run of the given kind and returns its report.
// A run against an exhausted quota is a no-op, not an error: the report shows
// zero attempts. Individual query failures never abort the run.
func (r *Runner) Run(ctx context.Context, kind discovery.RunKind) (discovery.Report, error) {
	started := r.deps.Clock.Now()
	runID, err := r.deps.IDs.NewID()
	if err != nil {
		return discovery.Report{}, fmt.Errorf("generate run id: %w", err)
	}
	report := discovery.Report{RunID: runID, Kind: kind, Started: started}
	logger := r.logger.With(zap.String("run_id", runID), zap.String("kind", string(kind)))

	status, err := r.deps.Ledger.Status(ctx)
	if err != nil {
		return report, fmt.Errorf("quota status: %w", err)
	}
	if !status.CanCall {
		logger.Warn("quota exhausted, skipping run", zap.Int("calls_used", status.Used))
		report.Duration = r.deps.Clock.Now().Sub(started)
		metrics.ObserveRun(string(kind), "skipped", report.Duration)
		return report, nil
	}

	plan, err := r.deps.Allocator.Plan(ctx)
	if err != nil {
		return report, fmt.Errorf("allocation plan: %w", err)
	}
	budget := plan[kind]
	if ceiling, ok := r.cfg.Ceilings[kind]; ok && budget > ceiling {
		budget = ceiling
	}

	queries := r.deps.Selector.Select(kind, budget, r.deps.Catalog)
	logger.Info("run starting",
		zap.Int("budget", budget),
		zap.Int("queries", len(queries)),
		zap.Int("quota_remaining", status.Remaining),
	)

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			logger.Warn("run canceled", zap.Error(err))
			break
		}
		report.Attempted++

		source := r.source(query.Kind)
		if source == nil {
			logger.Warn("no source for query kind", zap.String("kind", string(query.Kind)))
			continue
		}

		payload, fresh, err := r.resolve(ctx, source, query, runID, logger)
		if err != nil {
			if errors.Is(err, errStopRun) {
				report.Attempted--
				break
			}
			continue
		}
		if fresh {
			report.CallsMade++
		} else {
			report.CacheHits++
		}

		records, err := source.Parse(query, payload)
		if err != nil {
			logger.Warn("parse failed", zap.String("query", query.Text), zap.Error(err))
			continue
		}
		report.Found += len(records)

		accepted, err := r.deps.Gate.Ingest(ctx, records)
		if err != nil {
			logger.Warn("ingest interrupted", zap.String("query", query.Text), zap.Error(err))
			report.Accepted += accepted
			break
		}
		report.Accepted += accepted
	}

	report.Duration = r.deps.Clock.Now().Sub(started)
	metrics.ObserveRun(string(kind), "ok", report.Duration)
	metrics.ObserveEvents(string(kind), report.Found, report.Accepted)
	logger.Info("run finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("calls_made", report.CallsMade),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("found", report.Found),
		zap.Int("accepted", report.Accepted),
		zap.Duration("duration", report.Duration),
	)

	r.publish(ctx, report, logger)
	return report, nil
}

// errStopRun signals that the remaining queries of a run must be skipped
// (quota ran out mid-run). Never returned to callers.
var errStopRun = errors.New("run budget exhausted")

// resolve produces the payload for one query: cache first, external call
// only when affordable. fresh is true when quota was spent.
func (r *Runner) resolve(ctx context.Context, source Source, query discovery.QueryDescriptor, runID string, logger *zap.Logger) (payload []byte, fresh bool, err error) {
	cached, hit, err := r.deps.Cache.Get(ctx, query.Text, query.Kind)
	if err != nil {
		logger.Warn("cache read failed", zap.String("query", query.Text), zap.Error(err))
	} else if hit {
		return cached, false, nil
	}

	ok, err := r.deps.Ledger.CanAfford(ctx, 1)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		logger.Warn("quota ran out mid-run, stopping early", zap.String("query", query.Text))
		return nil, false, errStopRun
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	payload, err = source.Fetch(ctx, query)
	if err != nil {
		metrics.ObserveExternalCall(string(query.Kind), "error")
		logger.Warn("fetch failed", zap.String("query", query.Text), zap.Error(err))
		return nil, false, err
	}
	metrics.ObserveExternalCall(string(query.Kind), "ok")

	if err := r.deps.Cache.Set(ctx, query.Text, query.Kind, payload); err != nil {
		logger.Warn("cache write failed", zap.String("query", query.Text), zap.Error(err))
	}

	recorded, err := r.deps.Ledger.Record(ctx, query.Text, query.Kind)
	if err != nil {
		return nil, false, err
	}
	if !recorded {
		// The affordability check and the fetch raced quota exhaustion; the
		// payload is still usable, but the run must stop spending.
		logger.Warn("call not recorded, quota exhausted", zap.String("query", query.Text))
	}

	r.archive(ctx, runID, query, payload, logger)
	return payload, true, nil
}

// archive persists the raw payload when an archive backend is wired.
// Failures are logged and swallowed; archival never blocks a run.
func (r *Runner) archive(ctx context.Context, runID string, query discovery.QueryDescriptor, payload []byte, logger *zap.Logger) {
	if r.deps.Archive == nil {
		return
	}
	name := fmt.Sprintf("%s/%s/%x", runID, query.Kind, queryDigest(query.Text))
	uri, err := r.deps.Archive.Save(ctx, name, payload)
	if err != nil {
		logger.Warn("archive write failed", zap.String("query", query.Text), zap.Error(err))
		return
	}
	logger.Debug("payload archived", zap.String("uri", uri))
}

// publish sends the run report downstream when a publisher is wired.
func (r *Runner) publish(ctx context.Context, report discovery.Report, logger *zap.Logger) {
	if r.deps.Publisher == nil {
		return
	}
	id, err := r.deps.Publisher.Publish(ctx, r.cfg.Topic, report)
	if err != nil {
		logger.Warn("report publish failed", zap.Error(err))
		return
	}
	logger.Debug("report published", zap.String("message_id", id))
}

func (r *Runner) source(kind discovery.QueryKind) Source {
	if s, ok := r.deps.Sources[kind]; ok {
		return s
	}
	return r.deps.Sources[discovery.KindSearch]
}

func queryDigest(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return sum[:8]
}
