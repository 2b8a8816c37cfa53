// Package metrics exposes Prometheus counters for the AOI watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aoi_watcher"

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder collects watcher metrics on a private registry so tests and
// multiple watchers never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	polls           *prometheus.CounterVec
	pollDuration    *prometheus.HistogramVec
	published       *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
}

// New builds a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Summary polls per target by outcome.",
		}, []string{"target", "outcome"}),
		pollDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent fetching one target's wafer summaries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"target"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      "Wafer summaries accepted by at least one publisher.",
		}, []string{"target"}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_skipped_total",
			Help:      "Wafer summaries skipped because they were already seen.",
		}, []string{"target"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Wafer summaries no publisher accepted.",
		}, []string{"target"}),
	}
}

// ObservePoll records one poll of target.
func (r *Recorder) ObservePoll(target string, seconds float64, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.polls.WithLabelValues(target, outcome).Inc()
	r.pollDuration.WithLabelValues(target).Observe(seconds)
}

func (r *Recorder) Published(target string) {
	if r != nil {
		r.published.WithLabelValues(target).Inc()
	}
}

func (r *Recorder) Skipped(target string) {
	if r != nil {
		r.skipped.WithLabelValues(target).Inc()
	}
}

func (r *Recorder) PublishFailed(target string) {
	if r != nil {
		r.publishFailures.WithLabelValues(target).Inc()
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
