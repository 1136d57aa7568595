package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordEntryPosted(false)
	m.RecordEntryPosted(false)
	m.RecordEntryPosted(true)
	m.RecordPostingRejected("unbalanced")
	m.RecordIntegrityFailure("trial_balance")
	m.RecordEventPublished("entry.posted", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntriesPosted.WithLabelValues("regular")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesPosted.WithLabelValues("reversal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostingsRejected.WithLabelValues("unbalanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityFailures.WithLabelValues("trial_balance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("entry.posted", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEntryPosted(true)
		m.RecordPostingRejected("x")
		m.RecordAccountChange("create")
		m.RecordIntegrityFailure("x")
		m.RecordEventPublished("x", true)
		m.ObserveReport("x", time.Millisecond)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAccountChange("create")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `registru_account_changes_total{operation="create"} 1`)
}
