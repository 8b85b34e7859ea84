// Package query caches read-only backend queries.
//
// ProfileCache serves GET /profile results per token. Entries go stale after
// StaleTime and are refetched on the next read. A failed fetch is retried up
// to Retry more times with a constant delay; cancellation is never retried
// and failures are never cached.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authui/api"
	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultSize       = 16
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// Fetcher loads the profile for token from the backend.
type Fetcher func(ctx context.Context, token string) (api.User, error)

// Options configures a ProfileCache. Zero fields take the defaults above;
// a negative Retry disables retries.
type Options struct {
	StaleTime  time.Duration
	Size       int
	Retry      int
	RetryDelay time.Duration

	OnHit   func()
	OnMiss  func()
	OnRetry func(err error, delay time.Duration)
}

// ProfileCache is safe for concurrent use. Concurrent misses for the same
// token share one fetch.
type ProfileCache struct {
	fetch   Fetcher
	entries *expirable.LRU[string, api.User]
	group   singleflight.Group

	retry      uint
	retryDelay time.Duration
	onHit      func()
	onMiss     func()
	onRetry    func(error, time.Duration)
}

// NewProfileCache returns a cache in front of fetch.
func NewProfileCache(fetch Fetcher, opts Options) *ProfileCache {
	stale := opts.StaleTime
	if stale <= 0 {
		stale = DefaultStaleTime
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	retry := opts.Retry
	switch {
	case retry == 0:
		retry = DefaultRetry
	case retry < 0:
		retry = 0
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return &ProfileCache{
		fetch:      fetch,
		entries:    expirable.NewLRU[string, api.User](size, nil, stale),
		retry:      uint(retry),
		retryDelay: delay,
		onHit:      opts.OnHit,
		onMiss:     opts.OnMiss,
		onRetry:    opts.OnRetry,
	}
}

// Get returns the cached profile for token or fetches it.
func (c *ProfileCache) Get(ctx context.Context, token string) (api.User, error) {
	if user, ok := c.entries.Get(token); ok {
		if c.onHit != nil {
			c.onHit()
		}
		return user, nil
	}
	if c.onMiss != nil {
		c.onMiss()
	}

	v, err, _ := c.group.Do(token, func() (any, error) {
		user, err := c.fetchWithRetry(ctx, token)
		if err != nil {
			return api.User{}, err
		}
		c.entries.Add(token, user)
		return user, nil
	})
	if err != nil {
		return api.User{}, err
	}
	return v.(api.User), nil
}

// Peek returns a fresh cached profile without fetching.
func (c *ProfileCache) Peek(token string) (api.User, bool) {
	return c.entries.Peek(token)
}

// Invalidate drops the entry for token.
func (c *ProfileCache) Invalidate(token string) {
	c.entries.Remove(token)
}

// Purge drops every entry.
func (c *ProfileCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached entries, including stale ones not yet evicted.
func (c *ProfileCache) Len() int {
	return c.entries.Len()
}

func (c *ProfileCache) fetchWithRetry(ctx context.Context, token string) (api.User, error) {
	op := func() (api.User, error) {
		user, err := c.fetch(ctx, token)
		if err != nil && isCanceled(err) {
			return api.User{}, backoff.Permanent(err)
		}
		return user, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(c.retry + 1),
	}
	if c.onRetry != nil {
		opts = append(opts, backoff.WithNotify(c.onRetry))
	}
	return backoff.Retry(ctx, op, opts...)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
