package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes engine activity as prometheus collectors. Feed it to
// an engine through Hooks and serve the registry however the host
// prefers (the HTTP host mounts promhttp on /metrics).
type Metrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsActive   prometheus.Gauge
	actionsTotal *prometheus.CounterVec
	retriesTotal prometheus.Counter

	mu      sync.Mutex
	started map[string]time.Time // run ID (or flow name) -> start instant
}

// NewMetrics creates the collectors and registers them. A nil
// registerer falls back to the prometheus default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_runs_total",
				Help: "Finished runs by flow and final status",
			},
			[]string{"flow", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "espalier_run_duration_seconds",
				Help: "Wall-clock duration of finished runs",
			},
			[]string{"flow"},
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "espalier_runs_active",
				Help: "Runs currently inside the scheduler loop",
			},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_actions_total",
				Help: "Finished actions by outcome",
			},
			[]string{"outcome"},
		),
		retriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_action_retries_total",
				Help: "Retry attempts across all actions",
			},
		),
		started: make(map[string]time.Time),
	}

	reg.MustRegister(m.runsTotal, m.runDuration, m.runsActive, m.actionsTotal, m.retriesTotal)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
// Merge them with other hooks when the host observes more than one way.
func (m *Metrics) Hooks() *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted: func(_ context.Context, ev *domain.FlowEvent) {
			m.runsActive.Inc()
			m.markStarted(runKey(ev), ev.Timestamp)
		},
		OnFlowFinished: func(_ context.Context, ev *domain.FlowEvent) {
			m.runsActive.Dec()
			m.runsTotal.WithLabelValues(ev.Flow, ev.Status.String()).Inc()
			if start, ok := m.takeStarted(runKey(ev)); ok {
				m.runDuration.WithLabelValues(ev.Flow).Observe(ev.Timestamp.Sub(start).Seconds())
			}
		},
		OnActionFinished: func(_ context.Context, ev *domain.ActionEvent) {
			m.actionsTotal.WithLabelValues(string(ev.Outcome)).Inc()
		},
		OnRetryAttempt: func(_ context.Context, _ *domain.ActionEvent) {
			m.retriesTotal.Inc()
		},
	}
}

func runKey(ev *domain.FlowEvent) string {
	if ev.RunID != "" {
		return ev.RunID
	}
	return ev.Flow
}

func (m *Metrics) markStarted(key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[key] = at
}

func (m *Metrics) takeStarted(key string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.started[key]
	if ok {
		delete(m.started, key)
	}
	return start, ok
}
