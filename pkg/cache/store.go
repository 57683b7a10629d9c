// Package cache provides the namespaced response/API cache with
// freshness-aware TTLs. The backing store is pluggable: an in-memory
// LRU-ish map or Redis, with identical semantics.
package cache

import (
	"context"
	"time"
)

// Store is the backing key-value store. Implementations must be safe for
// concurrent use. Keys are scoped by namespace.
type Store interface {
	// Get returns the stored value and its age. ok is false when the key
	// is absent or past its stored TTL.
	Get(ctx context.Context, namespace, key string) (value string, age time.Duration, ok bool)

	// Set stores a value with the given TTL. A later Set wins.
	Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error

	// Delete removes a single entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// ClearNamespace removes every entry in a namespace.
	ClearNamespace(ctx context.Context, namespace string) error

	// Close releases backing resources (connections, sweeper goroutines).
	Close() error
}

// Well-known namespaces.
const (
	NamespaceResponses = "responses" // final agent responses
	NamespaceAPI       = "api"       // raw data-provider responses
)
