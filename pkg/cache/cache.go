package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"time"
)

// Cache is the process-wide cache facade shared by all sessions. Store
// errors are logged and treated as misses — a broken cache never breaks
// a turn.
type Cache struct {
	store Store
}

// New wraps a backing store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// HashParams produces a stable hex key from key/value pairs. Pairs are
// sorted by key so argument order never changes the hash.
func HashParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(params[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Get returns a raw cached value regardless of query-type freshness.
// Used for API-level entries whose TTL was fixed at write time.
func (c *Cache) Get(ctx context.Context, namespace, key string) (string, bool) {
	value, _, ok := c.store.Get(ctx, namespace, key)
	return value, ok
}

// GetFresh returns a cached value only if it satisfies the freshness policy
// for the given query type at the current time.
func (c *Cache) GetFresh(ctx context.Context, namespace, key string, qt QueryType) (string, bool) {
	value, age, ok := c.store.Get(ctx, namespace, key)
	if !ok {
		return "", false
	}
	if !Fresh(age, qt, time.Now()) {
		return "", false
	}
	return value, true
}

// Set stores a value. Errors are logged, never surfaced.
func (c *Cache) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) {
	if err := c.store.Set(ctx, namespace, key, value, ttl); err != nil {
		slog.Warn("Cache set failed", "namespace", namespace, "error", err)
	}
}

// SetForQueryType stores a value with the TTL derived from the query type.
func (c *Cache) SetForQueryType(ctx context.Context, namespace, key, value string, qt QueryType) {
	c.Set(ctx, namespace, key, value, EffectiveTTL(qt, time.Now()))
}

// Delete removes an entry. Errors are logged, never surfaced.
func (c *Cache) Delete(ctx context.Context, namespace, key string) {
	if err := c.store.Delete(ctx, namespace, key); err != nil {
		slog.Warn("Cache delete failed", "namespace", namespace, "error", err)
	}
}

// ClearNamespace drops a namespace. Errors are logged, never surfaced.
func (c *Cache) ClearNamespace(ctx context.Context, namespace string) {
	if err := c.store.ClearNamespace(ctx, namespace); err != nil {
		slog.Warn("Cache namespace clear failed", "namespace", namespace, "error", err)
	}
}

// Close shuts down the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}
