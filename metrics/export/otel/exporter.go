package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authui"
	"github.com/MrEthical07/authui/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no Meter is supplied.
	ErrNilMeter = errors.New("otel: nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("otel: nil metrics source")
)

// MetricsSource is what the exporter reads on every collection.
type MetricsSource interface {
	MetricsSnapshot() authui.MetricsSnapshot
	AuditDropped() uint64
}

// SessionSource is implemented by sources that can report the current
// session, such as *authui.Manager. The session gauge is registered only for
// these.
type SessionSource interface {
	Session() authui.Session
}

type observedCounter struct {
	id         authui.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      authui.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter owns the instrument registration. Close unregisters it.
type OTelExporter struct {
	source       MetricsSource
	sessions     SessionSource
	registration metric.Registration

	counters      []observedCounter
	histograms    []observedHistogram
	auditDropped  metric.Int64ObservableCounter
	authenticated metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments on meter that read from m.
func NewOTelExporter(meter metric.Meter, m *authui.Manager) (*OTelExporter, error) {
	if m == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, m)
}

// NewOTelExporterFromSource registers instruments on meter that read from source.
func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	e.sessions, _ = source.(SessionSource)

	observables, err := e.createInstruments(meter)
	if err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) createInstruments(meter metric.Meter) ([]metric.Observable, error) {
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative request latency bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Backend requests observed."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = count
		observables = append(observables, count)
		e.histograms = append(e.histograms, h)
	}

	dropped, err := meter.Int64ObservableCounter(
		"authui_audit_dropped_total",
		metric.WithDescription("Audit events dropped under dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	if e.sessions != nil {
		gauge, err := meter.Int64ObservableGauge(
			internaldefs.SessionAuthenticatedName,
			metric.WithDescription(internaldefs.SessionAuthenticatedHelp),
		)
		if err != nil {
			return nil, fmt.Errorf("create session gauge: %w", err)
		}
		e.authenticated = gauge
		observables = append(observables, gauge)
	}

	return observables, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, v := range cumulative {
			observer.ObserveInt64(h.buckets[i], int64(v))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	if e.sessions != nil {
		observer.ObserveInt64(e.authenticated, internaldefs.SessionAuthenticated(e.sessions.Session()))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
