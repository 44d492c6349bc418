// Package cache implements the TTL response cache that absorbs repeated
// queries without spending quota. Entries live in the key-value store, one
// per (query, kind) pair; validity is decided lazily on read and swept
// periodically by ClearExpired.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/kv"
	"eventradar/internal/metrics"
)

const keyPrefix = "cache/"

// Config sets per-kind TTLs. Kinds without an entry use DefaultTTL.
type Config struct {
	TTLs       map[discovery.QueryKind]time.Duration
	DefaultTTL time.Duration
}

// DefaultConfig mirrors the production TTLs: search 2h, news 1h, social 4h.
func DefaultConfig() Config {
	return Config{
		TTLs: map[discovery.QueryKind]time.Duration{
			discovery.KindSearch: 2 * time.Hour,
			discovery.KindNews:   time.Hour,
			discovery.KindSocial: 4 * time.Hour,
		},
		DefaultTTL: 2 * time.Hour,
	}
}

// entry is the persisted cache record. Payload is opaque bytes (JSON API
// responses and rendered HTML both pass through here).
type entry struct {
	Timestamp time.Time           `json:"timestamp"`
	Query     string              `json:"query"`
	Kind      discovery.QueryKind `json:"query_type"`
	Payload   []byte              `json:"payload"`
}

// Cache is a TTL-keyed response store. A single mutex serializes the
// read-check-write cycles so two goroutines cannot corrupt an entry.
type Cache struct {
	mu     sync.Mutex
	store  kv.Store
	clock  discovery.Clock
	hasher discovery.Hasher
	logger *zap.Logger
	cfg    Config
}

// New constructs a Cache.
func New(store kv.Store, clock discovery.Clock, hasher discovery.Hasher, cfg Config, logger *zap.Logger) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		clock:  clock,
		hasher: hasher,
		logger: logger,
		cfg:    cfg,
	}
}

// TTL returns the configured lifetime for a query kind.
func (c *Cache) TTL(kind discovery.QueryKind) time.Duration {
	if ttl, ok := c.cfg.TTLs[kind]; ok {
		return ttl
	}
	return c.cfg.DefaultTTL
}

// Get returns the cached payload for (query, kind) if a valid entry exists.
// Expired and unreadable entries are deleted on the way out and reported as
// misses. Store I/O failures propagate.
func (c *Cache) Get(ctx context.Context, query string, kind discovery.QueryKind) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := c.key(query, kind)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			metrics.ObserveCacheLookup(string(kind), "miss")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("cache entry unreadable, dropping",
			zap.String("query", query),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		_ = c.store.Delete(ctx, key)
		metrics.ObserveCacheLookup(string(kind), "miss")
		return nil, false, nil
	}

	if c.clock.Now().Sub(e.Timestamp) >= c.TTL(kind) {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, false, fmt.Errorf("delete expired cache entry: %w", err)
		}
		metrics.ObserveCacheLookup(string(kind), "miss")
		return nil, false, nil
	}

	metrics.ObserveCacheLookup(string(kind), "hit")
	c.logger.Debug("cache hit", zap.String("query", query), zap.String("kind", string(kind)))
	return e.Payload, true, nil
}

// Set stores a payload for (query, kind), stamped with the current time.
func (c *Cache) Set(ctx context.Context, query string, kind discovery.QueryKind, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := c.key(query, kind)
	if err != nil {
		return err
	}
	e := entry{
		Timestamp: c.clock.Now(),
		Query:     query,
		Kind:      kind,
		Payload:   payload,
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	c.logger.Debug("cached response", zap.String("query", query), zap.String("kind", string(kind)))
	return nil
}

// ClearExpired sweeps every entry and removes the expired and unreadable
// ones, returning the number removed. Correctness does not depend on this;
// Get already rejects stale entries lazily.
func (c *Cache) ClearExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}

	cleared := 0
	now := c.clock.Now()
	for _, key := range keys {
		raw, err := c.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			_ = c.store.Delete(ctx, key)
			cleared++
			continue
		}
		if now.Sub(e.Timestamp) >= c.TTL(e.Kind) {
			_ = c.store.Delete(ctx, key)
			cleared++
		}
	}
	if cleared > 0 {
		c.logger.Info("cleared expired cache entries", zap.Int("count", cleared))
	}
	return cleared, nil
}

// Stats reports totals without modifying any entry. Unreadable entries
// count as expired.
func (c *Cache) Stats(ctx context.Context) (discovery.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return discovery.CacheStats{}, fmt.Errorf("list cache entries: %w", err)
	}

	stats := discovery.CacheStats{}
	now := c.clock.Now()
	for _, key := range keys {
		stats.Total++
		raw, err := c.store.Get(ctx, key)
		if err != nil {
			stats.Expired++
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			stats.Expired++
			continue
		}
		if now.Sub(e.Timestamp) < c.TTL(e.Kind) {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	return stats, nil
}

// key hashes the normalized (query, kind) pair into a store key.
func (c *Cache) key(query string, kind discovery.QueryKind) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	digest, err := c.hasher.Hash([]byte(normalized + "_" + string(kind)))
	if err != nil {
		return "", fmt.Errorf("hash cache key: %w", err)
	}
	return keyPrefix + string(kind) + "_" + digest, nil
}
