package authui

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo is a note about a deliberate but uncommon choice.
	LintInfo LintSeverity = iota
	// LintWarn flags a setting that degrades the session experience.
	LintWarn
	// LintHigh flags a setting that exposes the token.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding from [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult lists every finding.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error describing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, len(hits))
	for i, w := range hits {
		parts[i] = w.Code + ": " + w.Message
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that are valid but risky. It never fails; pair it
// with Validate.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if base, err := url.Parse(strings.TrimSpace(c.API.BaseURL)); err == nil && base.Scheme == "http" && !isLoopback(base.Hostname()) {
		add("base_url_insecure", LintHigh, "credentials and the session token travel over plain http")
	}
	if c.API.AuthScheme != "" {
		add("auth_scheme_set", LintInfo, "the reference backend expects the raw token in Authorization")
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.Passphrase == "" {
			add("token_plaintext_at_rest", LintInfo, "the token file is protected by file mode only")
		}
	case StorageMemory:
		add("storage_ephemeral", LintWarn, "the session does not survive a restart")
	case StorageRedis:
		if c.Storage.RedisTTL > 0 && c.Storage.RedisTTL < time.Minute {
			add("redis_ttl_short", LintWarn, "the stored token expires in under a minute")
		}
	}

	if c.Query.StaleTime > time.Hour {
		add("profile_stale_long", LintWarn, "profile reads may be served from a cache older than an hour")
	}
	if !c.Validation.Enabled {
		add("validation_disabled", LintWarn, "malformed input is sent to the backend")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session transitions are not audited")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "no counters are recorded")
	}

	return ws
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
