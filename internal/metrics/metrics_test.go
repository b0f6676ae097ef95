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

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.Requests.WithLabelValues("binance", "fresh").Inc()
	m.Requests.WithLabelValues("binance", "fresh").Inc()
	m.ObserveCollect("binance", 120*time.Millisecond, 6)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("binance", "fresh")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Routes))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CollectDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.VenueErrors.WithLabelValues("bybit", "load_markets").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `configurator_venue_errors_total{exchange="bybit",operation="load_markets"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
