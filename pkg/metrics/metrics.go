// Package metrics provides Prometheus-based metrics recording for view-mode
// activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cleanup removal reasons used as label values.
const (
	ReasonUnparsable = "unparsable"
	ReasonMissing    = "missing"
)

// Recorder is the metrics sink consumed by the tracker. The interface
// keeps the core testable without a live registry.
type Recorder interface {
	ObserveToggle(nextMode string, success bool)
	ObserveCleanup(removedUnparsable, removedMissing int)
	IncStoreWriteFailure()
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveToggle(string, bool) {}
func (NopRecorder) ObserveCleanup(int, int)    {}
func (NopRecorder) IncStoreWriteFailure()      {}

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	togglesTotal       *prometheus.CounterVec
	cleanupRemoved     *prometheus.CounterVec
	storeWriteFailures prometheus.Counter
	registry           *prometheus.Registry
}

// NewPrometheusRecorder creates a recorder with its own registry, so
// embedding hosts can expose it without colliding with their own metrics.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		togglesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viewstate_toggles_total",
				Help: "Total number of view-mode toggles by resulting mode and status",
			},
			[]string{"next_mode", "status"},
		),
		cleanupRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viewstate_cleanup_removed_total",
				Help: "Total number of stale durable entries removed by the reconciler",
			},
			[]string{"reason"},
		),
		storeWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "viewstate_store_write_failures_total",
				Help: "Total number of durable store writes that failed after a successful toggle",
			},
		),
	}
}

// ObserveToggle records one toggle attempt.
func (p *PrometheusRecorder) ObserveToggle(nextMode string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	p.togglesTotal.WithLabelValues(nextMode, status).Inc()
}

// ObserveCleanup records the outcome of one reconciler pass.
func (p *PrometheusRecorder) ObserveCleanup(removedUnparsable, removedMissing int) {
	if removedUnparsable > 0 {
		p.cleanupRemoved.WithLabelValues(ReasonUnparsable).Add(float64(removedUnparsable))
	}
	if removedMissing > 0 {
		p.cleanupRemoved.WithLabelValues(ReasonMissing).Add(float64(removedMissing))
	}
}

// IncStoreWriteFailure counts a durable write that failed post-toggle.
func (p *PrometheusRecorder) IncStoreWriteFailure() {
	p.storeWriteFailures.Inc()
}

// Handler returns an HTTP handler exposing this recorder's registry, for
// hosts that serve a metrics endpoint.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
