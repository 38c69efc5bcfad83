package cache

import (
	"context"
	"time"
)

// Store is the capability interface over the key/value cache. All caching in
// this codebase is best-effort: an unavailable backend is treated as a miss,
// never as an error surfaced to callers.
type Store interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key matching the glob-style pattern.
	DeleteByPattern(ctx context.Context, pattern string) error
}
