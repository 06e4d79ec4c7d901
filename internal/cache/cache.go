// Package cache keeps read-through copies of entities in Redis.  A nil
// Store, or one without a Redis client, behaves as an always-empty cache so
// the service keeps working when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServiceKey is the cache key of a service record.
func ServiceKey(id uint64) string {
	return fmt.Sprintf("service:%d", id)
}

// Store wraps a Redis client with JSON values and a fixed TTL.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New returns a Store.  rdb may be nil.
func New(rdb *redis.Client, ttl time.Duration, prefix string) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *Store) enabled() bool { return s != nil && s.rdb != nil }

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// GetJSON decodes the value at key into out.  It reports false on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	bs, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(bs, out); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = s.rdb.Del(ctx, s.key(key)).Err()
		return false, nil
	}
	return true, nil
}

// genTTL bounds how long an invalidation generation is remembered.  It only
// has to outlive the slowest read-through fetch.
const genTTL = 24 * time.Hour

func (s *Store) genKey(k string) string { return s.key("gen:" + k) }

// Generation returns the invalidation counter of key, zero when unset.
func (s *Store) Generation(ctx context.Context, key string) (int64, error) {
	if !s.enabled() {
		return 0, nil
	}
	n, err := s.rdb.Get(ctx, s.genKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetJSONAt stores v at key only if key has not been invalidated since
// gen was read.  It reports whether the value was written.
func (s *Store) SetJSONAt(ctx context.Context, key string, gen int64, v any) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	gk := s.genKey(key)
	written := false
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetEx(ctx, s.key(key), bs, s.ttl)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// Invalidate deletes the given keys and bumps their generation so that
// in-flight reads started before the call do not write the old value back.
func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	if !s.enabled() || len(keys) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Del(ctx, s.key(k))
			pipe.Incr(ctx, s.genKey(k))
			pipe.Expire(ctx, s.genKey(k), genTTL)
		}
		return nil
	})
	return err
}
