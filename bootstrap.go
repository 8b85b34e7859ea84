package authui

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/authui/internal/locale"
	"github.com/MrEthical07/authui/internal/logging"
	"golang.org/x/text/language"
)

// profileFunc fetches the user for a token straight from the backend.
type profileFunc func(ctx context.Context, token string) (User, error)

// Bootstrapper validates a persisted token once at process start.
//
// Run moves the Session Store through validating to a terminal state:
// authenticated when the backend accepts the token, anonymous otherwise.
// Only the first Run does any work; later calls wait for and return the
// terminal state.
type Bootstrapper struct {
	sessions *SessionStore
	profile  profileFunc
	notifier Notifier
	locale   language.Tag
	metrics  *Metrics
	audit    *auditDispatcher
	logger   *slog.Logger

	once  sync.Once
	done  chan struct{}
	state atomic.Int32
}

func newBootstrapper(
	sessions *SessionStore,
	profile profileFunc,
	notifier Notifier,
	tag language.Tag,
	metrics *Metrics,
	audit *auditDispatcher,
	logger *slog.Logger,
) *Bootstrapper {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bootstrapper{
		sessions: sessions,
		profile:  profile,
		notifier: notifier,
		locale:   tag,
		metrics:  metrics,
		audit:    audit,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Run performs bootstrap and returns the terminal state. Concurrent and
// repeated calls share the first run; a caller whose ctx ends first gets the
// state observed at that moment.
func (b *Bootstrapper) Run(ctx context.Context) State {
	ctx = orBackground(ctx)
	b.once.Do(func() {
		go func() {
			defer close(b.done)
			b.state.Store(int32(b.run(context.WithoutCancel(ctx))))
		}()
	})

	select {
	case <-b.done:
	case <-ctx.Done():
	}
	return b.State()
}

// Done is closed once bootstrap reached a terminal state.
func (b *Bootstrapper) Done() <-chan struct{} {
	return b.done
}

// State returns the terminal state, or StateUninitialized or StateValidating
// while bootstrap has not finished.
func (b *Bootstrapper) State() State {
	select {
	case <-b.done:
		return State(b.state.Load())
	default:
		return b.sessions.State()
	}
}

func (b *Bootstrapper) run(ctx context.Context) State {
	token, ok := b.sessions.loadDurable(ctx)
	if !ok {
		b.sessions.settleAnonymous()
		b.metrics.Inc(MetricBootstrapAnonymous)
		b.audit.Emit(ctx, AuditEvent{
			EventType: AuditBootstrap,
			Success:   true,
			Metadata:  map[string]string{"result": StateAnonymous.String(), "reason": "no_token"},
		})
		b.logger.Debug("bootstrap finished without a persisted token")
		return StateAnonymous
	}

	b.sessions.beginValidation(token)
	b.logger.Debug("validating persisted token", "token", logging.Fingerprint(token))

	user, err := b.profile(ctx, token)
	if err != nil {
		b.notifier.Notify(ctx, Notification{
			Level:   LevelError,
			Title:   locale.Text(b.locale, locale.TitleError),
			Message: err.Error(),
		})
		b.sessions.clear(ctx, true)
		b.metrics.Inc(MetricBootstrapAnonymous)
		b.audit.Emit(ctx, AuditEvent{
			EventType: AuditBootstrap,
			Success:   false,
			Error:     err.Error(),
			Metadata:  map[string]string{"result": StateAnonymous.String(), "reason": "rejected"},
		})
		b.logger.Info("persisted token rejected", "error", err)
		return StateAnonymous
	}

	b.sessions.establish(ctx, token, user, true)
	b.metrics.Inc(MetricBootstrapAuthenticated)
	b.audit.Emit(ctx, AuditEvent{
		EventType: AuditBootstrap,
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
		Metadata:  map[string]string{"result": StateAuthenticated.String()},
	})
	b.logger.Debug("bootstrap restored session", "user_id", user.ID)
	return StateAuthenticated
}
