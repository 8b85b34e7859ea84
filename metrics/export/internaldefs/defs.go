package internaldefs

import (
	"github.com/MrEthical07/authui"
)

// CounterDef maps a counter to its exported name and help text.
type CounterDef struct {
	ID   authui.MetricID
	Name string
	Help string
}

// HistogramDef maps a histogram to its exported name and help text.
type HistogramDef struct {
	ID   authui.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: authui.MetricLoginSuccess, Name: "authui_login_success_total", Help: "Logins that established a session."},
	{ID: authui.MetricLoginFailure, Name: "authui_login_failure_total", Help: "Logins rejected by the backend or transport."},
	{ID: authui.MetricRegisterSuccess, Name: "authui_register_success_total", Help: "Registrations that established a session."},
	{ID: authui.MetricRegisterFailure, Name: "authui_register_failure_total", Help: "Registrations rejected by the backend or transport."},
	{ID: authui.MetricProfileFetchSuccess, Name: "authui_profile_fetch_success_total", Help: "Successful profile requests."},
	{ID: authui.MetricProfileFetchFailure, Name: "authui_profile_fetch_failure_total", Help: "Failed profile requests."},
	{ID: authui.MetricProfileCacheHit, Name: "authui_profile_cache_hit_total", Help: "Profile reads served from cache."},
	{ID: authui.MetricProfileCacheMiss, Name: "authui_profile_cache_miss_total", Help: "Profile reads sent to the backend."},
	{ID: authui.MetricProfileRetry, Name: "authui_profile_retry_total", Help: "Profile fetches retried after failure."},
	{ID: authui.MetricBootstrapAuthenticated, Name: "authui_bootstrap_authenticated_total", Help: "Bootstraps that validated a stored token."},
	{ID: authui.MetricBootstrapAnonymous, Name: "authui_bootstrap_anonymous_total", Help: "Bootstraps that ended without a session."},
	{ID: authui.MetricSessionEstablished, Name: "authui_session_established_total", Help: "Sessions established."},
	{ID: authui.MetricSessionCleared, Name: "authui_session_cleared_total", Help: "Sessions cleared."},
	{ID: authui.MetricLogout, Name: "authui_logout_total", Help: "Explicit logouts."},
	{ID: authui.MetricDuplicateSubmission, Name: "authui_duplicate_submission_total", Help: "Submissions collapsed into one already in flight."},
	{ID: authui.MetricValidationRejected, Name: "authui_validation_rejected_total", Help: "Submissions rejected before any request."},
	{ID: authui.MetricStorageFailure, Name: "authui_storage_failure_total", Help: "Durable token storage errors."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authui.MetricRequestLatency, Name: "authui_request_latency_seconds", Help: "Backend request latency histogram."},
}

// The session gauge is derived from the Session Store, not from a counter.
const (
	SessionAuthenticatedName = "authui_session_authenticated"
	SessionAuthenticatedHelp = "1 while a token and its user are held, else 0."
)

// SessionAuthenticated is the gauge value for s.
func SessionAuthenticated(s authui.Session) int64 {
	if s.Authenticated() {
		return 1
	}
	return 0
}

// HistogramBounds are the upper bounds, in seconds, of the eight latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside metric names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
