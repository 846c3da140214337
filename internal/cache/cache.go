// Package cache is the read-through result cache used by the engine. Entries
// are keyed by (user, operation, parameters) and expire after a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores opaque values with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Key builds "<prefix>:<user>:<operation>:<params>".
func Key(prefix, user, operation string, params map[string]string) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, user, operation, EncodeParams(params))
}

// EncodeParams renders params as "k=v,..." in key order, so equal parameter
// sets always encode the same way.
func EncodeParams(params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, ",")
}

// UserPrefix is the key prefix covering every entry of one user.
func UserPrefix(prefix, user string) string {
	return prefix + ":" + user + ":"
}

// GetJSON decodes a cached value into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Stats counts cache traffic.
type Stats struct {
	hits, misses, sets atomic.Int64
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() (hits, misses, sets int64) {
	return s.hits.Load(), s.misses.Load(), s.sets.Load()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error               { return nil }
func (Noop) Close() error                                             { return nil }
