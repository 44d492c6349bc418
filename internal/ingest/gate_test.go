package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/hash/sha256"
	"eventradar/internal/store/memory"
)

func record(title, url, date string) discovery.EventRecord {
	return discovery.EventRecord{Title: title, URL: url, EventDate: date, Source: "google_search"}
}

func TestIngestAcceptsDistinctRecords(t *testing.T) {
	t.Parallel()

	gate := New(memory.New(), sha256.New(), zap.NewNop())

	accepted, err := gate.Ingest(context.Background(), []discovery.EventRecord{
		record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"),
		record("Abuja Food Fair", "https://example.com/b", "2026-09-13"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
}

func TestIngestDeduplicatesWithinBatch(t *testing.T) {
	t.Parallel()

	store := memory.New()
	gate := New(store, sha256.New(), zap.NewNop())

	rec := record("Lagos Tech Fest", "https://example.com/a", "2026-09-12")
	accepted, err := gate.Ingest(context.Background(), []discovery.EventRecord{rec, rec})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestDeduplicatesAcrossBatches(t *testing.T) {
	t.Parallel()

	gate := New(memory.New(), sha256.New(), zap.NewNop())
	rec := record("Lagos Tech Fest", "https://example.com/a", "2026-09-12")

	accepted, err := gate.Ingest(context.Background(), []discovery.EventRecord{rec})
	require.NoError(t, err)
	require.Equal(t, 1, accepted)

	accepted, err = gate.Ingest(context.Background(), []discovery.EventRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func TestFingerprintSensitiveToDateFormat(t *testing.T) {
	t.Parallel()

	hasher := sha256.New()
	a, err := Fingerprint(hasher, record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"))
	require.NoError(t, err)
	b, err := Fingerprint(hasher, record("Lagos Tech Fest", "https://example.com/a", "Sep 12, 2026"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

type conflictStore struct {
	*memory.Store
}

func (c *conflictStore) ExistsByFingerprint(context.Context, string) (bool, error) {
	// Simulate a concurrent writer landing between lookup and insert.
	return false, nil
}

func TestIngestTreatsInsertConflictAsSkip(t *testing.T) {
	t.Parallel()

	inner := memory.New()
	require.NoError(t, inner.Insert(context.Background(),
		record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"), mustFingerprint(t)))

	gate := New(&conflictStore{Store: inner}, sha256.New(), zap.NewNop())
	accepted, err := gate.Ingest(context.Background(), []discovery.EventRecord{
		record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func mustFingerprint(t *testing.T) string {
	t.Helper()
	fp, err := Fingerprint(sha256.New(), record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"))
	require.NoError(t, err)
	return fp
}

type failingStore struct {
	*memory.Store
}

func (f *failingStore) Insert(context.Context, discovery.EventRecord, string) error {
	return errors.New("disk full")
}

func TestIngestContinuesPastStorageErrors(t *testing.T) {
	t.Parallel()

	gate := New(&failingStore{Store: memory.New()}, sha256.New(), zap.NewNop())
	accepted, err := gate.Ingest(context.Background(), []discovery.EventRecord{
		record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func TestIngestStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := New(memory.New(), sha256.New(), zap.NewNop())
	accepted, err := gate.Ingest(ctx, []discovery.EventRecord{
		record("Lagos Tech Fest", "https://example.com/a", "2026-09-12"),
	})
	assert.Error(t, err)
	assert.Equal(t, 0, accepted)
}
