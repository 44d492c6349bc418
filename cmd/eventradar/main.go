// Package main wires together the event discovery service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"eventradar/internal/archive"
	archivegcs "eventradar/internal/archive/gcs"
	archivelocal "eventradar/internal/archive/local"
	"eventradar/internal/cache"
	"eventradar/internal/catalog"
	"eventradar/internal/clock/system"
	"eventradar/internal/config"
	"eventradar/internal/discovery"
	"eventradar/internal/fetcher/google"
	"eventradar/internal/fetcher/social"
	"eventradar/internal/hash/sha256"
	"eventradar/internal/id/uuid"
	"eventradar/internal/ingest"
	"eventradar/internal/kv"
	kvfile "eventradar/internal/kv/file"
	kvmemory "eventradar/internal/kv/memory"
	"eventradar/internal/logging"
	"eventradar/internal/metrics"
	pubsubpublisher "eventradar/internal/publisher/pubsub"
	"eventradar/internal/quota"
	"eventradar/internal/relevance"
	"eventradar/internal/run"
	"eventradar/internal/schedule"
	"eventradar/internal/selector"
	"eventradar/internal/server"
	storememory "eventradar/internal/store/memory"
	storepostgres "eventradar/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runService(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func runService(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	loc, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Quota.Timezone, err)
	}

	var stateStore kv.Store
	if cfg.State.Dir != "" {
		stateStore, err = kvfile.New(kvfile.Config{BaseDir: cfg.State.Dir})
		if err != nil {
			return fmt.Errorf("init state store: %w", err)
		}
	} else {
		logger.Warn("no state directory configured, quota and cache state will not survive restarts")
		stateStore = kvmemory.New()
	}

	clock := system.New()
	hasher := sha256.New()

	ledger, err := quota.New(stateStore, clock, quota.Config{
		DailyLimit:   cfg.Quota.DailyLimit,
		SafetyBuffer: cfg.Quota.SafetyBuffer,
		Timezone:     loc,
	}, logger.Named("quota"))
	if err != nil {
		return fmt.Errorf("init quota ledger: %w", err)
	}
	alloc := quota.NewAllocator(ledger, logger.Named("quota"))

	respCache := cache.New(stateStore, clock, hasher, cache.Config{
		TTLs: map[discovery.QueryKind]time.Duration{
			discovery.KindSearch: cfg.Cache.SearchTTL,
			discovery.KindNews:   cfg.Cache.NewsTTL,
			discovery.KindSocial: cfg.Cache.SocialTTL,
		},
		DefaultTTL: cfg.Cache.DefaultTTL,
	}, logger.Named("cache"))

	events, cleanup, err := buildEventStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sources, closeSources, err := buildSources(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSources()

	var publisher discovery.Publisher
	if cfg.PubSub.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		defer client.Close() //nolint:errcheck
		publisher, err = pubsubpublisher.New(client)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
	}

	archiver, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}

	runner, err := run.New(run.Deps{
		Ledger:    ledger,
		Allocator: alloc,
		Selector:  selector.New(nil),
		Catalog:   catalog.Default(),
		Cache:     respCache,
		Gate:      ingest.New(events, hasher, logger.Named("ingest")),
		Sources:   sources,
		Publisher: publisher,
		Archive:   archiver,
		IDs:       uuid.New(),
		Clock:     clock,
		Logger:    logger.Named("run"),
	}, run.Config{
		Ceilings: map[discovery.RunKind]int{
			discovery.RunComprehensive: cfg.Runs.ComprehensiveMax,
			discovery.RunQuick:         cfg.Runs.QuickMax,
			discovery.RunSocial:        cfg.Runs.SocialMax,
		},
		Delay: time.Duration(cfg.Runs.DelayMillis) * time.Millisecond,
		Topic: cfg.PubSub.TopicName,
	})
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}

	sched, err := schedule.New(runner, respCache, schedule.Config{
		ComprehensiveEvery: cfg.Runs.ComprehensiveEvery,
		QuickEvery:         cfg.Runs.QuickEvery,
		SocialEvery:        cfg.Runs.SocialEvery,
		CleanupEvery:       cfg.Runs.CleanupEvery,
		InitialRun:         cfg.Runs.InitialRun,
		Timezone:           loc,
	}, logger.Named("schedule"))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	apiServer := server.NewServer(ledger, alloc, respCache, catalog.Default(), runner, events, logger.Named("http"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	return nil
}

// buildEventStore selects Postgres when a DSN is configured, otherwise the
// in-memory store.
func buildEventStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (discovery.EventStore, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Warn("no database configured, events will not survive restarts")
		return storememory.New(), func() {}, nil
	}

	store, err := storepostgres.New(ctx, storepostgres.Config{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: int32(cfg.DB.MaxConns),
		MinConns: int32(cfg.DB.MinConns),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init event store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("prepare event store: %w", err)
	}
	return store, store.Close, nil
}

// buildSources wires the search backend (always) and the social backend
// (headless when enabled, stub otherwise so social runs degrade gracefully).
func buildSources(cfg config.Config, logger *zap.Logger) (map[discovery.QueryKind]run.Source, func(), error) {
	if cfg.Fetch.GoogleAPIKey == "" || cfg.Fetch.GoogleCSEID == "" {
		return nil, nil, fmt.Errorf("fetch.google_api_key and fetch.google_cse_id are required")
	}

	filter := relevance.NewFilter()
	googleCfg := google.DefaultConfig(cfg.Fetch.GoogleAPIKey, cfg.Fetch.GoogleCSEID)
	googleCfg.UserAgent = cfg.Fetch.UserAgent
	googleCfg.Timeout = cfg.FetchTimeout()
	searchSource, err := google.New(googleCfg, filter, logger.Named("google"))
	if err != nil {
		return nil, nil, fmt.Errorf("init search source: %w", err)
	}

	var renderer social.Renderer = social.NewNoopRenderer()
	if cfg.Fetch.HeadlessEnabled {
		chromeRenderer, err := social.NewChromedp(social.RendererConfig{
			MaxParallel:       cfg.Fetch.HeadlessParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Fetch.HeadlessNavSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed, social runs disabled", zap.Error(err))
		} else {
			renderer = chromeRenderer
		}
	}
	socialSource, err := social.NewSource(renderer, filter, logger.Named("social"))
	if err != nil {
		renderer.Close()
		return nil, nil, fmt.Errorf("init social source: %w", err)
	}

	sources := map[discovery.QueryKind]run.Source{
		discovery.KindSearch: searchSource,
		discovery.KindMedia:  searchSource,
		discovery.KindNews:   searchSource,
		discovery.KindSocial: socialSource,
	}
	return sources, renderer.Close, nil
}

// buildArchive selects the payload archive backend.
func buildArchive(ctx context.Context, cfg config.Config) (archive.Provider, error) {
	switch cfg.Archive.Backend {
	case "local":
		provider, err := archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return provider, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		provider, err := archivegcs.New(client, archivegcs.Config{
			Bucket: cfg.Archive.GCSBucket,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return provider, nil
	default:
		return nil, nil
	}
}
