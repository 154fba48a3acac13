package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/dotgraph/pkg/observability"
)

// instrumented reports cache traffic to observability.Cache(), labelled by
// the key type segment that precedes the hash.
type instrumented struct {
	Cache
}

// Instrument wraps c so that hits, misses and writes reach the registered
// cache hooks.
func Instrument(c Cache) Cache {
	if _, ok := c.(NullCache); ok {
		return c
	}
	return instrumented{Cache: c}
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func keyType(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		key = key[:i]
	}
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		key = key[i+1:]
	}
	return key
}
