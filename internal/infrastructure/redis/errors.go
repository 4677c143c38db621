package redis

import "errors"

// Sentinel errors for Redis connection management.
var (
	// ErrConnectionFailed indicates the initial connection could not be
	// established.
	ErrConnectionFailed = errors.New("redis: connection failed")

	// ErrNotConnected indicates an operation was attempted on a closed
	// client.
	ErrNotConnected = errors.New("redis: not connected")
)
