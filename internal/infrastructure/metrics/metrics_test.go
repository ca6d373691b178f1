package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"recyclebin/internal/domain/lifecycle"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("products", lifecycle.ActionRestore, "ok", time.Now())
	m.ObserveOperation("products", lifecycle.ActionRestore, "ok", time.Now())
	m.ObserveOperation("products", lifecycle.ActionPurge, "error", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("products", "restore", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("products", "purge", "error")))
}

func TestMetrics_ObserveBulk(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBulk("users", lifecycle.ActionPurge, 5, 3)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.BulkRequested.WithLabelValues("users", "purge")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BulkApplied.WithLabelValues("users", "purge")))
}

func TestMetrics_ObserveHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("/api/v1/trash/:entity", http.MethodGet, http.StatusOK, time.Millisecond)
	m.ObserveHTTP("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/trash/:entity", "GET", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "4xx")))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("products", lifecycle.ActionList, "ok", time.Now())
		m.ObserveBulk("products", lifecycle.ActionRestore, 1, 1)
		m.ObserveHTTP("/", http.MethodGet, http.StatusOK, 0)
	})
}
