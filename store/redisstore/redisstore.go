// Package redisstore keeps the session token in Redis under <prefix>:<key>.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authui/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces keys when Options.Prefix is empty.
const DefaultPrefix = "authui"

// ErrRedisUnavailable wraps every Redis command failure other than a missing key.
var ErrRedisUnavailable = errors.New("redis unavailable")

var _ store.TokenStore = (*Store)(nil)

// Options configures a Redis store.
type Options struct {
	Prefix string
	Key    string
	// TTL expires the stored token. Zero keeps it until deleted.
	TTL time.Duration
}

// Store is a Redis-backed TokenStore.
type Store struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// New returns a Store over an existing client. The caller owns the client.
func New(rdb redis.UniversalClient, opts Options) *Store {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Store{
		redis: rdb,
		key:   prefix + ":" + store.NormalizeKey(opts.Key),
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the token.
func (s *Store) Key() string {
	return s.key
}

// Load returns the token under Key, or store.ErrNoToken when the key is
// missing or empty.
func (s *Store) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", store.ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if token == "" {
		return "", store.ErrNoToken
	}
	return token, nil
}

// Save sets the token with the configured TTL; zero TTL never expires.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return store.ErrEmptyToken
	}
	if err := s.redis.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes the key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping reports round-trip latency to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
