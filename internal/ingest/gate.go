// Package ingest is the single entry point for discovered records into
// durable storage: it fingerprints each record and refuses re-insertion of
// a fingerprint already seen.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"eventradar/internal/discovery"
)

// Fingerprint computes the stable content hash for a record: the exact
// concatenation of title, URL, and the raw event date string. The date is
// deliberately not normalized, so the same event listed with differently
// formatted dates produces distinct fingerprints.
func Fingerprint(hasher discovery.Hasher, record discovery.EventRecord) (string, error) {
	digest, err := hasher.Hash([]byte(record.Title + record.URL + record.EventDate))
	if err != nil {
		return "", fmt.Errorf("hash record: %w", err)
	}
	return digest, nil
}

// Gate deduplicates candidate records against the event store.
type Gate struct {
	store  discovery.EventStore
	hasher discovery.Hasher
	logger *zap.Logger
}

// New constructs a Gate.
func New(store discovery.EventStore, hasher discovery.Hasher, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, hasher: hasher, logger: logger}
}

// Ingest passes each record through the dedup check and inserts the unseen
// ones, returning how many were newly accepted. Duplicates are skipped
// silently; a storage error on one record (including a uniqueness conflict
// racing a concurrent writer) is logged and counted as not accepted without
// aborting the batch. Safe to call repeatedly with overlapping batches.
func (g *Gate) Ingest(ctx context.Context, records []discovery.EventRecord) (int, error) {
	accepted := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return accepted, fmt.Errorf("ingest canceled: %w", err)
		}

		fingerprint, err := Fingerprint(g.hasher, record)
		if err != nil {
			g.logger.Warn("fingerprint failed", zap.String("title", record.Title), zap.Error(err))
			continue
		}

		exists, err := g.store.ExistsByFingerprint(ctx, fingerprint)
		if err != nil {
			g.logger.Warn("dedup lookup failed",
				zap.String("fingerprint", fingerprint),
				zap.Error(err),
			)
			continue
		}
		if exists {
			continue
		}

		if err := g.store.Insert(ctx, record, fingerprint); err != nil {
			if errors.Is(err, discovery.ErrConflict) {
				// Lost a race with a concurrent writer; same outcome as exists.
				continue
			}
			g.logger.Warn("insert failed",
				zap.String("title", record.Title),
				zap.String("fingerprint", fingerprint),
				zap.Error(err),
			)
			continue
		}
		accepted++
	}

	if accepted > 0 {
		g.logger.Info("accepted new records", zap.Int("count", accepted), zap.Int("batch", len(records)))
	}
	return accepted, nil
}
