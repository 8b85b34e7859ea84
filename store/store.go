// Package store defines durable token storage.
//
// A TokenStore holds at most one token under a single key. Implementations
// live in sub-packages (filestore, redisstore, sqlitestore); [Memory] is the
// in-process variant.
package store

import (
	"context"
	"errors"
	"strings"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "token"

// ErrNoToken is returned by Load when no token is stored.
var ErrNoToken = errors.New("store: no token")

// TokenStore persists the session token across restarts.
//
// Load returns ErrNoToken when the key is absent. Delete of an absent key
// succeeds.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// ErrEmptyToken is returned by Save for an empty token.
var ErrEmptyToken = errors.New("store: empty token")

// NormalizeKey trims key and substitutes DefaultKey when empty.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return DefaultKey
	}
	return key
}
