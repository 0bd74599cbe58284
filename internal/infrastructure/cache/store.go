// Package cache provides the key-value store behind the authorization guard.
//
// The guard is a correctness-relevant cache: entries carry a freshness window
// but must also be explicitly deletable, key by key, when a session ends or a
// role binding changes. The Store interface is therefore Get/Set/Delete, not
// a memoization layer.
package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with per-entry TTL.
type Store interface {
	// Get returns the value and whether the key was present and fresh.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given freshness window.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
