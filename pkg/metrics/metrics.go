// Package metrics exports Prometheus collectors for the engine: live
// handles per kind, handle churn, and the outcome of every protocol step.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tss2p"

// Metrics implements registry.Observer and records protocol outcomes
type Metrics struct {
	liveHandles *prometheus.GaugeVec
	allocated   *prometheus.CounterVec
	released    *prometheus.CounterVec
	steps       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with registerer. A nil
// registerer yields working but unregistered collectors.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		liveHandles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_handles",
			Help:      "Number of live handles by kind",
		}, []string{"kind"}),
		allocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_allocated_total",
			Help:      "Total number of handles allocated by kind",
		}, []string{"kind"}),
		released: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_released_total",
			Help:      "Total number of handles released by kind",
		}, []string{"kind"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_steps_total",
			Help:      "Protocol steps by protocol, step and result code",
		}, []string{"protocol", "step", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "protocol_step_duration_seconds",
			Help:      "Duration of protocol steps",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"protocol", "step"}),
	}

	if registerer == nil {
		return m, nil
	}
	err := errors.Join(
		registerer.Register(m.liveHandles),
		registerer.Register(m.allocated),
		registerer.Register(m.released),
		registerer.Register(m.steps),
		registerer.Register(m.duration),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// InitKinds exports a zero series for each handle kind so dashboards see
// every kind before its first allocation
func (m *Metrics) InitKinds(kinds ...string) {
	for _, kind := range kinds {
		m.liveHandles.WithLabelValues(kind).Add(0)
		m.allocated.WithLabelValues(kind)
		m.released.WithLabelValues(kind)
	}
}

// HandleAllocated implements registry.Observer
func (m *Metrics) HandleAllocated(kind string) {
	m.liveHandles.WithLabelValues(kind).Inc()
	m.allocated.WithLabelValues(kind).Inc()
}

// HandleReleased implements registry.Observer
func (m *Metrics) HandleReleased(kind string) {
	m.liveHandles.WithLabelValues(kind).Dec()
	m.released.WithLabelValues(kind).Inc()
}

// ObserveStep records one protocol step. code is the tsserr code name
// ("ok" on success).
func (m *Metrics) ObserveStep(protocol, step, code string, elapsed time.Duration) {
	m.steps.WithLabelValues(protocol, step, code).Inc()
	m.duration.WithLabelValues(protocol, step).Observe(elapsed.Seconds())
}
