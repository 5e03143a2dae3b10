package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Chain outcome labels.
const (
	ChainResolved = "resolved"
	ChainSkipped  = "skipped"
)

// Metrics holds the resolver counters. Each instance owns its registry so
// parallel runs and tests do not share state. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	Chains          *prometheus.CounterVec
	Diagnostics     *prometheus.CounterVec
	Flows           prometheus.Counter
	Connections     prometheus.Counter
	ResolveDuration prometheus.Histogram
}

// New creates and registers the resolver metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Chains: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowsem",
				Subsystem: "resolver",
				Name:      "chains_total",
				Help:      "Chains walked by outcome",
			},
			[]string{"outcome"},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowsem",
				Subsystem: "resolver",
				Name:      "diagnostics_total",
				Help:      "Semantic diagnostics reported by kind",
			},
			[]string{"kind"},
		),
		Flows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowsem",
			Subsystem: "resolver",
			Name:      "flows_total",
			Help:      "Flows assembled",
		}),
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowsem",
			Subsystem: "resolver",
			Name:      "connections_total",
			Help:      "Connections emitted into assembled flows",
		}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowsem",
			Subsystem: "resolver",
			Name:      "flow_duration_seconds",
			Help:      "Time spent resolving one flow",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.Chains, m.Diagnostics, m.Flows, m.Connections, m.ResolveDuration)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveChain counts one walked chain.
func (m *Metrics) ObserveChain(outcome string) {
	if m == nil {
		return
	}
	m.Chains.WithLabelValues(outcome).Inc()
}

// ObserveDiagnostic counts one reported diagnostic kind.
func (m *Metrics) ObserveDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.Diagnostics.WithLabelValues(kind).Inc()
}

// ObserveFlow records one assembled flow.
func (m *Metrics) ObserveFlow(elapsed time.Duration, connections int) {
	if m == nil {
		return
	}
	m.Flows.Inc()
	m.Connections.Add(float64(connections))
	m.ResolveDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
