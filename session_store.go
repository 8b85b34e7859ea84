package authui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/MrEthical07/authui/internal/logging"
	"github.com/MrEthical07/authui/store"
)

// SessionStore is the single source of truth for the current session.
//
// Reads are cheap and never block on storage. Mutations are serialized and
// write the durable token before updating memory, so a reader that observes
// a token can rely on it having been persisted (or on the failure having been
// logged). Subscribers run synchronously after each mutation, outside the
// lock, in subscription order.
type SessionStore struct {
	durable store.TokenStore
	logger  *slog.Logger
	metrics *Metrics

	// writeMu serializes mutations including their storage I/O.
	writeMu sync.Mutex

	mu       sync.RWMutex
	token    string
	hasToken bool
	user     *User
	loading  bool
	state    State

	subMu     sync.Mutex
	listeners []listener
	nextSub   uint64
}

type listener struct {
	id uint64
	fn func(Session)
}

// NewSessionStore returns an empty store over durable. A nil durable store
// keeps the token in memory only.
func NewSessionStore(durable store.TokenStore, logger *slog.Logger, metrics *Metrics) *SessionStore {
	if durable == nil {
		durable = store.NewMemory()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionStore{
		durable: durable,
		logger:  logger,
		metrics: metrics,
	}
}

// Token returns the current token.
func (s *SessionStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.hasToken
}

// User returns the current user.
func (s *SessionStore) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Loading reports whether bootstrap validation is in flight.
func (s *SessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns the derived lifecycle state.
func (s *SessionStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a consistent copy of every field.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() Session {
	out := Session{
		Token:    s.token,
		HasToken: s.hasToken,
		Loading:  s.loading,
		State:    s.state,
	}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}

// Establish persists token and makes token and user current. A storage
// failure is logged and counted; the in-memory session is still updated so
// the current process stays signed in. An empty token is ignored. A nil ctx
// means context.Background.
func (s *SessionStore) Establish(ctx context.Context, token string, user User) {
	s.establish(ctx, token, user, false)
}

// Clear deletes the durable token and drops token and user. Calling Clear on
// an empty store is a no-op apart from the idempotent storage delete.
func (s *SessionStore) Clear(ctx context.Context) {
	s.clear(ctx, false)
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned cancel func is idempotent.
func (s *SessionStore) Subscribe(fn func(Session)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *SessionStore) establish(ctx context.Context, token string, user User, settle bool) {
	ctx = orBackground(ctx)
	if token == "" {
		s.logger.Warn("establish ignored: empty token")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.durable.Save(ctx, token); err != nil {
		s.metrics.Inc(MetricStorageFailure)
		s.logger.Warn("persist session token failed",
			"token", logging.Fingerprint(token),
			"error", err,
		)
	}

	u := user
	s.mu.Lock()
	s.token = token
	s.hasToken = true
	s.user = &u
	s.state = StateAuthenticated
	if settle {
		s.loading = false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.Inc(MetricSessionEstablished)
	s.logger.Debug("session established", "user_id", user.ID, "token", logging.Fingerprint(token))
	s.publish(snap)
}

func (s *SessionStore) clear(ctx context.Context, settle bool) {
	ctx = orBackground(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.durable.Delete(ctx); err != nil {
		s.metrics.Inc(MetricStorageFailure)
		s.logger.Warn("delete session token failed", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.hasToken = false
	s.user = nil
	s.state = StateAnonymous
	if settle {
		s.loading = false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.Inc(MetricSessionCleared)
	s.logger.Debug("session cleared")
	s.publish(snap)
}

// loadDurable reads the persisted token. Read failures other than absence
// are logged and reported as absent.
func (s *SessionStore) loadDurable(ctx context.Context) (string, bool) {
	ctx = orBackground(ctx)
	token, err := s.durable.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNoToken) {
			s.metrics.Inc(MetricStorageFailure)
			s.logger.Warn("read persisted token failed", "error", err)
		}
		return "", false
	}
	return token, token != ""
}

// beginValidation installs token optimistically and marks the store loading.
func (s *SessionStore) beginValidation(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.hasToken = true
	s.user = nil
	s.loading = true
	s.state = StateValidating
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// settleAnonymous ends bootstrap when no token was persisted.
func (s *SessionStore) settleAnonymous() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.loading = false
	s.state = StateAnonymous
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *SessionStore) publish(snap Session) {
	s.subMu.Lock()
	fns := make([]func(Session), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
