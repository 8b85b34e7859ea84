package authui

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that established a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected by the backend or the transport.
	MetricLoginFailure
	// MetricRegisterSuccess counts registrations that established a session.
	MetricRegisterSuccess
	// MetricRegisterFailure counts registrations rejected by the backend or the transport.
	MetricRegisterFailure
	// MetricProfileFetchSuccess counts successful GET /profile requests.
	MetricProfileFetchSuccess
	// MetricProfileFetchFailure counts failed GET /profile requests.
	MetricProfileFetchFailure
	// MetricProfileCacheHit counts profile reads served from the query cache.
	MetricProfileCacheHit
	// MetricProfileCacheMiss counts profile reads that went to the backend.
	MetricProfileCacheMiss
	// MetricProfileRetry counts profile fetches retried after a failure.
	MetricProfileRetry
	// MetricBootstrapAuthenticated counts bootstraps that validated a stored token.
	MetricBootstrapAuthenticated
	// MetricBootstrapAnonymous counts bootstraps that ended without a session.
	MetricBootstrapAnonymous
	// MetricSessionEstablished counts Session Store establish calls.
	MetricSessionEstablished
	// MetricSessionCleared counts Session Store clear calls.
	MetricSessionCleared
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricDuplicateSubmission counts submissions collapsed into one in flight.
	MetricDuplicateSubmission
	// MetricValidationRejected counts submissions rejected before any request.
	MetricValidationRejected
	// MetricStorageFailure counts durable storage errors.
	MetricStorageFailure
	// MetricRequestLatency is the backend request latency histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and a latency histogram.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg. Latency histograms need
// both Enabled and EnableLatencyHistograms.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter for id.
//
// Inc is safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricRequestLatency has a
// histogram; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
//
// Snapshot does not reset counters. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

// Backend round-trips are slower than in-process validation, so the buckets
// run from 50ms to 5s.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 50:
		return 0
	case ms <= 100:
		return 1
	case ms <= 250:
		return 2
	case ms <= 500:
		return 3
	case ms <= 1000:
		return 4
	case ms <= 2500:
		return 5
	case ms <= 5000:
		return 6
	default:
		return 7
	}
}
