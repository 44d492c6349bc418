// Package kv defines the key-value store interface backing the quota ledger
// and response cache. Implementations must make Put durable before returning;
// quota correctness depends on it.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal durable key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes the value for key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all keys with the given prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
