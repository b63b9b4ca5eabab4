package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveScan("Basic", "HIGH", 2*time.Millisecond)
	m.ObserveScan("Basic", "HIGH", time.Millisecond)
	m.ObservePut(true, 128)
	m.ObservePut(false, 128)
	m.ObserveVersion(false)
	m.ObserveVerify("MISMATCH")
	m.ObserveDenied("tenant.manage")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scans.WithLabelValues("Basic", "HIGH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.objectPuts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.objectPuts.WithLabelValues("dedup")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.objectBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versions.WithLabelValues("dedup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifyResults.WithLabelValues("MISMATCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.denials.WithLabelValues("tenant.manage")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScan("Basic", "LOW", time.Millisecond)
		m.ObservePut(true, 1)
		m.ObserveVersion(true)
		m.ObserveVerify("OK")
		m.ObserveDenied("export")
		m.ObserveHTTP("GET", "/live", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("GET", "/api/v1/rulesets", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cui_inspector_http_requests_total"))
}
