package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEnvelope wraps stored values with their creation time so age-based
// freshness checks work identically to the memory store.
type redisEnvelope struct {
	Value     string    `json:"v"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore backs the cache with Redis. Keys are "airsift:{namespace}:{key}".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(namespace, key string) string {
	return "airsift:" + namespace + ":" + key
}

// Get returns the value and its age, or ok=false on miss or decode failure.
func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, time.Duration, bool) {
	raw, err := s.client.Get(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		return "", 0, false
	}
	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return "", 0, false
	}
	return env.Value, time.Since(env.CreatedAt), true
}

// Set stores the enveloped value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	raw, err := json.Marshal(redisEnvelope{Value: value, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.client.Set(ctx, redisKey(namespace, key), raw, ttl).Err()
}

// Delete removes a single entry.
func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	return s.client.Del(ctx, redisKey(namespace, key)).Err()
}

// ClearNamespace removes all keys in the namespace via SCAN to avoid
// blocking Redis on large keyspaces.
func (s *RedisStore) ClearNamespace(ctx context.Context, namespace string) error {
	iter := s.client.Scan(ctx, 0, redisKey(namespace, "*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
