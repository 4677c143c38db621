package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/config"
)

// Default timeouts for Redis operations.
const (
	defaultDialTimeout = 5 * time.Second
	defaultPingTimeout = 3 * time.Second
)

// Client wraps the go-redis client with connection management and
// health monitoring for the session store.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client goredis.UniversalClient
	cfg    config.RedisConfig

	// connected tracks current connection state.
	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to the Redis server and verifies it
// with a ping.
//
// Parameters:
//   - cfg: Redis configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the connection cannot be established
func Connect(cfg config.RedisConfig) (*Client, error) {
	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}

	return &Client{
		client:    client,
		cfg:       cfg,
		connected: true,
	}, nil
}

// Universal returns the underlying client for use by the session
// registry. The Client retains ownership of the connection lifecycle.
func (c *Client) Universal() goredis.UniversalClient {
	return c.client
}

// Close gracefully shuts down the Redis connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

// HealthCheck verifies the Redis connection is alive and functioning.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := c.client.Ping(checkCtx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which performs an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
