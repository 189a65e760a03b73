// Package kv provides the keyed byte store the checkpoint layer persists
// into. The interface is deliberately narrow (get/set/delete/list-by-prefix
// plus an atomic read-modify-write) so the orchestrator never touches ambient
// global state and tests can substitute an in-memory fake.
package kv

import "context"

// Pair is one stored key/value entry.
type Pair struct {
	Key   string
	Value []byte
}

// Store is a durable, keyed byte store.
//
// Implementations must return common.ErrorNotFound from Get when the key is
// absent. Delete of an absent key is a no-op.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Update performs a read-modify-write of key as a single atomic step.
	// fn receives the current value (nil, found=false when absent) and
	// returns the replacement. Returning an error from fn aborts the update
	// and leaves the stored value unchanged.
	Update(ctx context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// ListPrefix returns all entries whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) ([]Pair, error)
}
