package authui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authui/api"
	"github.com/MrEthical07/authui/internal/locale"
	"github.com/MrEthical07/authui/internal/validate"
	"github.com/MrEthical07/authui/jwt"
	"github.com/MrEthical07/authui/query"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// Manager owns one client session: the Session Store, the backend client,
// the bootstrapper, and the profile cache. Build one with [New].
//
// Manager is safe for concurrent use.
type Manager struct {
	cfg      Config
	client   *api.Client
	sessions *SessionStore
	boot     *Bootstrapper
	profiles *query.ProfileCache

	validation bool
	policy     validate.Policy
	locale     language.Tag

	notifier Notifier
	metrics  *Metrics
	audit    *auditDispatcher
	logger   *slog.Logger

	submits    singleflight.Group
	inflightMu sync.Mutex
	inflight   map[string]int

	closers   []io.Closer
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Bootstrap validates the persisted token, once per Manager. See
// [Bootstrapper.Run].
func (m *Manager) Bootstrap(ctx context.Context) State {
	return m.boot.Run(ctx)
}

// Bootstrapper exposes the bootstrap lifecycle, mainly for Done.
func (m *Manager) Bootstrapper() *Bootstrapper {
	return m.boot
}

// Sessions returns the Session Store.
func (m *Manager) Sessions() *SessionStore {
	return m.sessions
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	return m.sessions.Snapshot()
}

// Subscribe registers fn for every session change. See [SessionStore.Subscribe].
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	return m.sessions.Subscribe(fn)
}

// Locale returns the catalog locale used for messages.
func (m *Manager) Locale() language.Tag {
	return m.locale
}

// Config returns the configuration the Manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Login submits credentials to the backend and, on success, establishes the
// returned session and emits a welcome notice. On failure the error is
// notified and returned, and the session is left untouched.
//
// Identical concurrent submissions share one backend request.
func (m *Manager) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	ctx = orBackground(ctx)
	if err := m.checkOpen(); err != nil {
		return AuthResponse{}, err
	}
	if m.validation {
		if err := m.policy.Login(email, password); err != nil {
			m.rejectInput(ctx, api.OpLogin, email, err)
			return AuthResponse{}, err
		}
	}
	return m.submit(ctx, api.OpLogin, api.Credentials{Email: email, Password: password})
}

// Register creates an account. confirm must equal password. Behaves like
// Login otherwise.
func (m *Manager) Register(ctx context.Context, email, password, confirm string) (AuthResponse, error) {
	ctx = orBackground(ctx)
	if err := m.checkOpen(); err != nil {
		return AuthResponse{}, err
	}
	if m.validation {
		if err := m.policy.Registration(email, password, confirm); err != nil {
			m.rejectInput(ctx, api.OpRegister, email, err)
			return AuthResponse{}, err
		}
	}
	return m.submit(ctx, api.OpRegister, api.Credentials{Email: email, Password: password})
}

// Profile returns the current user's profile through the query cache. It
// returns ErrNotAuthenticated when no token is held.
func (m *Manager) Profile(ctx context.Context) (User, error) {
	ctx = orBackground(ctx)
	if err := m.checkOpen(); err != nil {
		return User{}, err
	}
	token, ok := m.sessions.Token()
	if !ok {
		return User{}, ErrNotAuthenticated
	}
	return m.profiles.Get(ctx, token)
}

// Logout clears the session and forgets cached profiles.
func (m *Manager) Logout(ctx context.Context) error {
	ctx = orBackground(ctx)
	if err := m.checkOpen(); err != nil {
		return err
	}

	user, _ := m.sessions.User()
	m.sessions.Clear(ctx)
	m.profiles.Purge()

	m.metrics.Inc(MetricLogout)
	m.audit.Emit(ctx, AuditEvent{
		EventType: AuditLogout,
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})
	m.notifier.Notify(ctx, Notification{
		Level:   LevelSuccess,
		Title:   locale.Text(m.locale, locale.TitleDone),
		Message: locale.Text(m.locale, locale.SignedOut),
	})
	return nil
}

// TokenInfo decodes the current token when it is a JWT. The claims are not
// verified and are informational only.
func (m *Manager) TokenInfo() (jwt.Claims, bool) {
	token, ok := m.sessions.Token()
	if !ok {
		return jwt.Claims{}, false
	}
	claims, err := jwt.Inspect(token)
	if err != nil {
		return jwt.Claims{}, false
	}
	return claims, true
}

// MetricsSnapshot returns a point-in-time copy of every metric.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped returns how many audit events were discarded.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close flushes audit events and releases storage connections. Further
// operations return ErrManagerClosed; session reads keep working.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.audit.Close()

		var errs []error
		for i := len(m.closers) - 1; i >= 0; i-- {
			if err := m.closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}

func (m *Manager) checkOpen() error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	return nil
}

type submitResult struct {
	resp AuthResponse
	err  error
}

// submit collapses identical in-flight submissions. The shared request keeps
// the first caller's values but not its cancellation, and is bounded by the
// API timeout; each caller's ctx only ends its own wait.
func (m *Manager) submit(ctx context.Context, op string, creds api.Credentials) (AuthResponse, error) {
	key := submissionKey(op, creds)

	m.inflightMu.Lock()
	if m.inflight[key] > 0 {
		m.metrics.Inc(MetricDuplicateSubmission)
		m.logger.Debug("duplicate submission joined", "op", op)
	}
	m.inflight[key]++
	ch := m.submits.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.submitTimeout())
		defer cancel()
		resp, err := m.authenticate(shared, op, creds)
		return submitResult{resp: resp, err: err}, nil
	})
	m.inflightMu.Unlock()

	defer func() {
		m.inflightMu.Lock()
		if m.inflight[key]--; m.inflight[key] <= 0 {
			delete(m.inflight, key)
		}
		m.inflightMu.Unlock()
	}()

	select {
	case res := <-ch:
		out := res.Val.(submitResult)
		return out.resp, out.err
	case <-ctx.Done():
		return AuthResponse{}, ctx.Err()
	}
}

func (m *Manager) authenticate(ctx context.Context, op string, creds api.Credentials) (AuthResponse, error) {
	call, success, failure, auditType, notice := m.client.Login, MetricLoginSuccess, MetricLoginFailure, AuditLogin, locale.WelcomeBack
	if op == api.OpRegister {
		call, success, failure, auditType, notice = m.client.Register, MetricRegisterSuccess, MetricRegisterFailure, AuditRegister, locale.AccountCreated
	}

	resp, err := call(ctx, creds)
	if err != nil {
		m.metrics.Inc(failure)
		m.audit.Emit(ctx, AuditEvent{
			EventType: auditType,
			Email:     creds.Email,
			Success:   false,
			Error:     err.Error(),
		})
		m.logger.Info(op+" failed", "status", api.StatusOf(err), "error", err)
		// The shared ctx is never canceled, so a deadline here is a real failure.
		if !errors.Is(err, context.Canceled) {
			m.notifyError(ctx, err)
		}
		return AuthResponse{}, err
	}

	m.sessions.Establish(ctx, resp.Token, resp.User)
	m.metrics.Inc(success)
	m.audit.Emit(ctx, AuditEvent{
		EventType: auditType,
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Success:   true,
	})
	m.logger.Info(op+" succeeded", "user_id", resp.User.ID)
	m.notifier.Notify(ctx, Notification{
		Level:   LevelSuccess,
		Title:   locale.Text(m.locale, locale.TitleDone),
		Message: locale.Text(m.locale, notice),
	})
	return resp, nil
}

func (m *Manager) submitTimeout() time.Duration {
	if m.cfg.API.Timeout > 0 {
		return m.cfg.API.Timeout
	}
	return api.DefaultTimeout
}

// rejectInput records a submission refused before any request was sent.
// Field errors are returned to the caller rather than notified.
func (m *Manager) rejectInput(ctx context.Context, op, email string, err error) {
	m.metrics.Inc(MetricValidationRejected)
	m.audit.Emit(ctx, AuditEvent{
		EventType: AuditValidationReject,
		Email:     email,
		Success:   false,
		Error:     err.Error(),
		Metadata:  map[string]string{"op": op},
	})
	m.logger.Debug("submission rejected by validation", "op", op, "error", err)
}

func (m *Manager) notifyError(ctx context.Context, err error) {
	m.notifier.Notify(ctx, Notification{
		Level:   LevelError,
		Title:   locale.Text(m.locale, locale.TitleError),
		Message: err.Error(),
	})
}

// fetchProfile is the uncached profile read shared by bootstrap and the
// query cache.
func (m *Manager) fetchProfile(ctx context.Context, token string) (User, error) {
	user, err := m.client.Profile(ctx, token)
	if err != nil {
		m.metrics.Inc(MetricProfileFetchFailure)
		return User{}, err
	}
	m.metrics.Inc(MetricProfileFetchSuccess)
	return user, nil
}

func (m *Manager) observeRequest(op string, elapsed time.Duration, err error) {
	m.metrics.Observe(MetricRequestLatency, elapsed)
	m.logger.Debug("backend request", "op", op, "elapsed", elapsed, "status", api.StatusOf(err))
}

func submissionKey(op string, creds api.Credentials) string {
	h := sha256.New()
	h.Write([]byte(op))
	h.Write([]byte{0})
	h.Write([]byte(creds.Email))
	h.Write([]byte{0})
	h.Write([]byte(creds.Password))
	return hex.EncodeToString(h.Sum(nil))
}
