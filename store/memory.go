package store

import (
	"context"
	"sync"
)

var _ TokenStore = (*Memory)(nil)

// Memory is a TokenStore that lives as long as the process.
type Memory struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the stored token or ErrNoToken.
func (m *Memory) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", ErrNoToken
	}
	return m.token, nil
}

// Save replaces the stored token. An empty token is rejected with ErrEmptyToken.
func (m *Memory) Save(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

// Delete forgets the token. Deleting an empty store is not an error.
func (m *Memory) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}
