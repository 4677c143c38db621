package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session registry wire format.
const (
	// blacklistKeyPrefix namespaces revoked-session keys in the shared store.
	blacklistKeyPrefix = "pharmatrack:session:blacklist:"

	// revokedSentinel is the value stored under a blacklisted session key.
	// Only key existence matters; the value is a marker for inspection.
	revokedSentinel = "revoked"
)

// ErrKeyNotFound is returned by SessionRegistry.Get for absent keys,
// including keys whose TTL has elapsed.
var ErrKeyNotFound = errors.New("session registry: key not found")

// SessionRegistry is the external key-value collaborator used to track
// revoked session identifiers. Set and Get are atomic at single-key
// granularity; entries expire automatically after their TTL.
type SessionRegistry interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// blacklistKey derives the registry key for a session identifier.
func blacklistKey(sessionID string) string {
	return blacklistKeyPrefix + sessionID
}

// RedisSessionRegistry implements SessionRegistry on a Redis client.
type RedisSessionRegistry struct {
	client redis.UniversalClient
}

// NewRedisSessionRegistry wraps an established Redis client. The caller
// owns the client's lifecycle.
func NewRedisSessionRegistry(client redis.UniversalClient) *RedisSessionRegistry {
	return &RedisSessionRegistry{client: client}
}

// Set stores value under key with the given TTL.
func (r *RedisSessionRegistry) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("session registry set %q: %w", key, err)
	}
	return nil
}

// Get retrieves the value stored under key, or ErrKeyNotFound.
func (r *RedisSessionRegistry) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("session registry get %q: %w", key, err)
	}
	return value, nil
}
