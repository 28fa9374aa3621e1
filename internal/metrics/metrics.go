// Package metrics exposes job and capability counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe on a nil receiver so components can run without
// a registry in tests.
type Metrics struct {
	registry     *prometheus.Registry
	jobsStarted  *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
	launchFull   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "jobs_started_total",
			Help:      "Jobs picked up by a worker.",
		}, []string{"kind"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a terminal status.",
		}, []string{"kind", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tripplanner",
			Name:      "job_duration_seconds",
			Help:      "Wall time from worker pickup to terminal status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "capability_fallbacks_total",
			Help:      "Steps that substituted deterministic output for a failed capability call.",
		}, []string{"step"}),
		launchFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "launcher_saturated_total",
			Help:      "Launch attempts rejected because the worker queue was full.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsStarted,
		m.jobsFinished,
		m.jobDuration,
		m.fallbacks,
		m.launchFull,
	)
	return m
}

func (m *Metrics) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.jobsStarted.WithLabelValues(kind).Inc()
}

func (m *Metrics) JobFinished(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues(kind, status).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) Fallback(step string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(step).Inc()
}

func (m *Metrics) LauncherSaturated() {
	if m == nil {
		return
	}
	m.launchFull.Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

