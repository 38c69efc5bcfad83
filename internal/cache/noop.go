package cache

import (
	"context"
	"time"
)

// noopStore is the always-miss implementation selected when no cache backend
// is configured. "Redis absent" is a startup configuration choice, not a
// hidden runtime branch.
type noopStore struct{}

func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (noopStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (noopStore) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (noopStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}
