package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals a key that is not in the cache.
var ErrMiss = errors.New("cache: miss")

// Cache is the key-value store used for short-lived derived data.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Noop is used when no Redis is configured: every read misses and every
// SetNX succeeds, so callers behave as if nothing was cached.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) (string, error) { return "", ErrMiss }

func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }

func (Noop) SetNX(context.Context, string, string, time.Duration) (bool, error) { return true, nil }

func (Noop) Del(context.Context, ...string) error { return nil }
