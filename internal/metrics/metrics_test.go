package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Invocations.WithLabelValues("submit-video", OutcomeOK).Inc()
	a.JobsSubmitted.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Invocations.WithLabelValues("submit-video", OutcomeOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Invocations.WithLabelValues("submit-video", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.JobsSubmitted))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.JobStatuses.WithLabelValues("COMPLETE").Inc()
	m.Failures.WithLabelValues("complete-video", "ELEMENTAL_CONVERT", "reportable").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mediaconv_job_status_events_total{status="COMPLETE"} 1`)
	assert.Contains(t, string(body), `mediaconv_failures_total{class="reportable",code="ELEMENTAL_CONVERT",pipeline="complete-video"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
