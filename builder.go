package authui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/authui/api"
	"github.com/MrEthical07/authui/internal/logging"
	"github.com/MrEthical07/authui/internal/validate"
	"github.com/MrEthical07/authui/query"
	"github.com/MrEthical07/authui/store"
	"github.com/MrEthical07/authui/store/filestore"
	"github.com/MrEthical07/authui/store/redisstore"
	"github.com/MrEthical07/authui/store/sqlitestore"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. Configure it during initialization and call
// Build once.
type Builder struct {
	config Config

	logger     *slog.Logger
	notifier   Notifier
	auditSink  AuditSink
	tokenStore store.TokenStore
	httpClient *http.Client
	redis      redis.UniversalClient

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithNotifier sets where user-facing notices go. The default discards.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the audit sink. Events are delivered only when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTokenStore overrides the durable store selected by Config.Storage.
func (b *Builder) WithTokenStore(s store.TokenStore) *Builder {
	b.tokenStore = s
	return b
}

// WithHTTPClient overrides the backend transport.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithRedis supplies the client used by the redis storage backend. A client
// passed here is not closed by Manager.Close.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMetricsEnabled toggles metric recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Manager. The Manager has
// not bootstrapped yet; call Manager.Bootstrap.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = NoOpNotifier{}
	}

	m := &Manager{
		cfg:        cfg,
		validation: cfg.Validation.Enabled,
		policy: validate.Policy{
			MinPassword: cfg.Validation.MinPassword,
			MaxPassword: cfg.Validation.MaxPassword,
		},
		locale:   cfg.LocaleTag(),
		notifier: notifier,
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		logger:   logger,
		inflight: make(map[string]int),
	}

	// -------- AUTH CLIENT --------
	client, err := api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: b.httpClient,
		Timeout:    cfg.API.Timeout,
		AuthScheme: cfg.API.AuthScheme,
		UserAgent:  cfg.API.UserAgent,
		Locale:     m.locale,
		Observe:    m.observeRequest,
	})
	if err != nil {
		m.audit.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	m.client = client

	// -------- TOKEN STORE --------
	durable := b.tokenStore
	if durable == nil {
		durable, m.closers, err = b.openStore(cfg.Storage)
		if err != nil {
			m.audit.Close()
			return nil, err
		}
	}
	m.sessions = NewSessionStore(durable, logger, m.metrics)

	// -------- PROFILE QUERY --------
	retry := cfg.Query.Retry
	if retry == 0 {
		retry = -1
	}
	m.profiles = query.NewProfileCache(m.fetchProfile, query.Options{
		StaleTime:  cfg.Query.StaleTime,
		Size:       cfg.Query.Size,
		Retry:      retry,
		RetryDelay: cfg.Query.RetryDelay,
		OnHit:      func() { m.metrics.Inc(MetricProfileCacheHit) },
		OnMiss:     func() { m.metrics.Inc(MetricProfileCacheMiss) },
		OnRetry: func(err error, delay time.Duration) {
			m.metrics.Inc(MetricProfileRetry)
			logger.Debug("retrying profile fetch", "delay", delay, "error", err)
		},
	})

	// -------- BOOTSTRAP --------
	m.boot = newBootstrapper(m.sessions, m.fetchProfile, notifier, m.locale, m.metrics, m.audit, logger)

	logger.Debug("manager built",
		"base_url", client.BaseURL(),
		"storage", string(cfg.Storage.Backend),
		"locale", m.locale.String(),
	)
	return m, nil
}

func (b *Builder) openStore(cfg StorageConfig) (store.TokenStore, []io.Closer, error) {
	switch cfg.Backend {
	case StorageMemory:
		return store.NewMemory(), nil, nil

	case StorageRedis:
		rdb := b.redis
		var closers []io.Closer
		if rdb == nil {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			rdb = client
			closers = append(closers, client)
		}
		s := redisstore.New(rdb, redisstore.Options{
			Prefix: cfg.RedisPrefix,
			Key:    cfg.Key,
			TTL:    cfg.RedisTTL,
		})
		return s, closers, nil

	case StorageSQLite:
		s, err := sqlitestore.Open(context.Background(), cfg.SQLitePath, cfg.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite token store: %w", err)
		}
		return s, []io.Closer{s}, nil

	default:
		s, err := filestore.New(filestore.Options{
			Path:       cfg.Path,
			Key:        cfg.Key,
			Passphrase: cfg.Passphrase,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open file token store: %w", err)
		}
		return s, nil, nil
	}
}
