// Package cache provides the key/value store used for session state.
package cache

import (
	"context"
	"time"
)

// Store is a namespaced key/value store with per-entry TTL. Values are
// JSON encoded.
type Store interface {
	// Get decodes the value stored under key into dest. It reports false
	// without error when the key does not exist or has expired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. A ttl of zero keeps the store default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	// Clear removes every key in the store's namespace.
	Clear(ctx context.Context) error
}

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = 24 * time.Hour
