// Package metrics holds the Prometheus collectors of the media pipelines.
// Collectors live on an explicit registry owned by the process, never the global one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediaconv"

// Invocation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeIgnored  = "ignored"
	OutcomeReported = "reported"
	OutcomeFailed   = "failed"
)

// Metrics groups the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	Invocations   *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	JobsSubmitted prometheus.Counter
	JobStatuses   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	ToolDuration  *prometheus.HistogramVec
	Duplicates    prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Invocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Pipeline invocations by pipeline and outcome.",
		}, []string{"pipeline", "outcome"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Pipeline failures by pipeline, error code and class.",
		}, []string{"pipeline", "code", "class"}),
		JobsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Transcoding jobs accepted by the engine.",
		}),
		JobStatuses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_events_total",
			Help:      "Job state-change events received, by status.",
		}, []string{"status"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Messages published, by subject and result.",
		}, []string{"subject", "result"}),
		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Wall time of external inspection tools including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tool"}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_events_total",
			Help:      "Job state-change events skipped because they were already handled.",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
