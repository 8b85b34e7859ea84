package authui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authui/internal/locale"
	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "AUTHUI_"

// DefaultBaseURL is the production authentication backend.
const DefaultBaseURL = "https://backend-ashen-seven-22.vercel.app"

// Config is the complete Manager configuration. Every field can be set from
// the environment; see the env tags, all relative to EnvPrefix.
type Config struct {
	API        APIConfig        `envPrefix:"API_"`
	Storage    StorageConfig    `envPrefix:"STORAGE_"`
	Query      QueryConfig      `envPrefix:"QUERY_"`
	Validation ValidationConfig `envPrefix:"VALIDATION_"`
	Audit      AuditConfig      `envPrefix:"AUDIT_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
	Log        LogConfig        `envPrefix:"LOG_"`
	// Locale selects the message catalog ("en", "ru", or an Accept-Language list).
	Locale string `env:"LOCALE"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT"`
	// AuthScheme prefixes the token in the Authorization header. Empty sends
	// the raw token, which is what the backend expects.
	AuthScheme string `env:"AUTH_SCHEME"`
	UserAgent  string `env:"USER_AGENT"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend selects where the session token is persisted.
type StorageBackend string

const (
	// StorageFile keeps the token in a 0600 file under the user config dir.
	StorageFile StorageBackend = "file"
	// StorageRedis keeps the token in Redis.
	StorageRedis StorageBackend = "redis"
	// StorageSQLite keeps the token in a SQLite database.
	StorageSQLite StorageBackend = "sqlite"
	// StorageMemory keeps the token for the life of the process only.
	StorageMemory StorageBackend = "memory"
)

// StorageConfig configures durable token storage.
type StorageConfig struct {
	Backend StorageBackend `env:"BACKEND"`
	Key     string         `env:"KEY"`
	// Path overrides the token file location for the file backend.
	Path string `env:"PATH"`
	// Passphrase seals the token at rest for the file backend.
	Passphrase  string        `env:"PASSPHRASE"`
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisPrefix string        `env:"REDIS_PREFIX"`
	RedisTTL    time.Duration `env:"REDIS_TTL"`
	SQLitePath  string        `env:"SQLITE_PATH"`
}

/*
====================================
QUERY CONFIG
====================================
*/

// QueryConfig configures the profile query cache.
type QueryConfig struct {
	StaleTime  time.Duration `env:"STALE_TIME"`
	Size       int           `env:"SIZE"`
	Retry      int           `env:"RETRY"`
	RetryDelay time.Duration `env:"RETRY_DELAY"`
}

// ValidationConfig bounds credential input checked before submission.
type ValidationConfig struct {
	Enabled     bool `env:"ENABLED"`
	MinPassword int  `env:"MIN_PASSWORD"`
	MaxPassword int  `env:"MAX_PASSWORD"`
}

// AuditConfig configures asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig toggles counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `env:"LEVEL"`
	Format string `env:"FORMAT"`
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     StorageFile,
			Key:         "token",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "authui",
		},
		Query: QueryConfig{
			StaleTime:  5 * time.Minute,
			Size:       16,
			Retry:      1,
			RetryDelay: time.Second,
		},
		Validation: ValidationConfig{
			Enabled:     true,
			MinPassword: 6,
			MaxPassword: 20,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Locale: "en",
	}
}

// LoadConfig returns DefaultConfig overridden by AUTHUI_* environment variables.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{Prefix: EnvPrefix})
}

// LoadConfigFrom is LoadConfig over an explicit environment instead of the
// process environment. Keys carry the AUTHUI_ prefix.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	return loadConfig(env.Options{Prefix: EnvPrefix, Environment: environ})
}

func loadConfig(opts env.Options) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LocaleTag resolves Locale to a supported catalog tag.
func (c *Config) LocaleTag() language.Tag {
	return locale.Match(c.Locale)
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// API
	base, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("API BaseURL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("API Timeout must be >= 0")
	}
	if strings.ContainsAny(c.API.AuthScheme, " \t\r\n") {
		return fmt.Errorf("API AuthScheme must be a single token")
	}

	// Storage
	switch c.Storage.Backend {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return fmt.Errorf("Storage RedisAddr is required for the redis backend")
		}
		if c.Storage.RedisTTL < 0 {
			return fmt.Errorf("Storage RedisTTL must be >= 0")
		}
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("Storage SQLitePath is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported Storage Backend %q", c.Storage.Backend)
	}
	if c.Storage.Passphrase != "" && c.Storage.Backend != StorageFile {
		return fmt.Errorf("Storage Passphrase is only supported by the file backend")
	}

	// Query
	if c.Query.StaleTime < 0 || c.Query.RetryDelay < 0 {
		return fmt.Errorf("Query durations must be >= 0")
	}
	if c.Query.Size < 0 {
		return fmt.Errorf("Query Size must be >= 0")
	}
	if c.Query.Retry < 0 || c.Query.Retry > 5 {
		return fmt.Errorf("Query Retry must be between 0 and 5")
	}

	// Validation
	if c.Validation.Enabled {
		if c.Validation.MinPassword < 1 {
			return fmt.Errorf("Validation MinPassword must be >= 1")
		}
		if c.Validation.MaxPassword < c.Validation.MinPassword {
			return fmt.Errorf("Validation MaxPassword must be >= MinPassword")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Log
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported Log Format %q", c.Log.Format)
	}

	return nil
}
