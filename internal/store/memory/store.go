// Package memory provides an in-memory event store for development/testing.
package memory

import (
	"context"
	"sync"

	"eventradar/internal/discovery"
)

// Store implements discovery.EventStore with a mutex-guarded map keyed by
// fingerprint, enforcing the same uniqueness the Postgres schema does.
type Store struct {
	mu      sync.RWMutex
	records map[string]discovery.EventRecord
	order   []string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{records: make(map[string]discovery.EventRecord)}
}

// ExistsByFingerprint reports whether a record with the fingerprint is stored.
func (s *Store) ExistsByFingerprint(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[fingerprint]
	return ok, nil
}

// Insert stores the record, returning discovery.ErrConflict on a duplicate
// fingerprint.
func (s *Store) Insert(_ context.Context, record discovery.EventRecord, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[fingerprint]; ok {
		return discovery.ErrConflict
	}
	s.records[fingerprint] = record
	s.order = append(s.order, fingerprint)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// All returns stored records in insertion order.
func (s *Store) All(_ context.Context) ([]discovery.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]discovery.EventRecord, 0, len(s.order))
	for _, fp := range s.order {
		out = append(out, s.records[fp])
	}
	return out, nil
}
