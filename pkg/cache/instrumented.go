package cache

import (
	"context"
	"time"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

// Instrumented reports hits, misses and writes of an inner cache to the
// global cache hooks, labeled by [KeyType].
type Instrumented struct {
	Cache
}

// Instrument wraps c.
func Instrument(c Cache) Cache {
	if c == nil {
		return nil
	}
	return Instrumented{Cache: c}
}

// Get forwards to the inner cache and reports the outcome.
func (c Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

// Set forwards to the inner cache and reports successful writes.
func (c Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}
