package discovery

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by EventStore.Insert when a record with the same
// fingerprint already exists (the storage layer's uniqueness constraint).
var ErrConflict = errors.New("record fingerprint already exists")

// Fetcher executes one external search call and returns the raw response
// payload. The fetcher owns transport concerns (timeouts, retries); the
// orchestrator treats any error as a zero-record query and moves on.
type Fetcher interface {
	Fetch(ctx context.Context, query QueryDescriptor) ([]byte, error)
}

// Parser turns a raw response payload into candidate event records.
// It must be safe to re-run on cached payloads.
type Parser interface {
	Parse(query QueryDescriptor, payload []byte) ([]EventRecord, error)
}

// EventStore is the durable record store behind the ingest gate.
// Insert returns ErrConflict when the fingerprint already exists, which the
// gate treats as a normal skip.
type EventStore interface {
	ExistsByFingerprint(ctx context.Context, fingerprint string) (bool, error)
	Insert(ctx context.Context, record EventRecord, fingerprint string) error
	Count(ctx context.Context) (int, error)
}

// Publisher pushes run notifications downstream (Pub/Sub or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for cache keys and dedup fingerprints.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
