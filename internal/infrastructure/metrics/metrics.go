// Package metrics exposes Prometheus collectors for trash lifecycle
// operations and the HTTP transport.
//
// Methods handle a nil receiver, so a nil *Metrics disables collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"recyclebin/internal/domain/lifecycle"
)

// Metrics implements lifecycle.Observer.
type Metrics struct {
	// Operations counts lifecycle calls.
	// Labels: entity, action=[list, soft_delete, restore, purge], outcome=[ok, error]
	Operations *prometheus.CounterVec

	// OperationDuration tracks lifecycle call latency.
	OperationDuration *prometheus.HistogramVec

	// BulkRequested counts ids submitted to bulk operations after de-duplication.
	BulkRequested *prometheus.CounterVec

	// BulkApplied counts ids a bulk operation actually changed.
	BulkApplied *prometheus.CounterVec

	// HTTPRequests counts HTTP requests by route template, method and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration tracks HTTP handler latency by route template.
	HTTPDuration *prometheus.HistogramVec
}

var _ lifecycle.Observer = (*Metrics)(nil)

// New creates and registers all collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recyclebin_lifecycle_operations_total",
			Help: "Trash lifecycle operations by entity, action and outcome",
		}, []string{"entity", "action", "outcome"}),

		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recyclebin_lifecycle_operation_duration_seconds",
			Help:    "Duration of trash lifecycle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"entity", "action"}),

		BulkRequested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recyclebin_bulk_ids_requested_total",
			Help: "Distinct ids submitted to bulk operations",
		}, []string{"entity", "action"}),

		BulkApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recyclebin_bulk_ids_applied_total",
			Help: "Ids changed by bulk operations",
		}, []string{"entity", "action"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recyclebin_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recyclebin_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveOperation implements lifecycle.Observer.
func (m *Metrics) ObserveOperation(entityName string, action lifecycle.Action, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(entityName, string(action), outcome).Inc()
	m.OperationDuration.WithLabelValues(entityName, string(action)).Observe(time.Since(started).Seconds())
}

// ObserveBulk implements lifecycle.Observer.
func (m *Metrics) ObserveBulk(entityName string, action lifecycle.Action, requested, applied int) {
	if m == nil {
		return
	}
	m.BulkRequested.WithLabelValues(entityName, string(action)).Add(float64(requested))
	m.BulkApplied.WithLabelValues(entityName, string(action)).Add(float64(applied))
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
