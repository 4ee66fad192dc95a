package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	appMetrics.RequestsTotal.WithLabelValues(metrics.StatusSuccess).Add(2)
	appMetrics.RequestsTotal.WithLabelValues(metrics.StatusFailure).Inc()
	appMetrics.KeysLoaded.Set(3)

	assert.InDelta(t, 2, testutil.ToFloat64(appMetrics.RequestsTotal.WithLabelValues(metrics.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.RequestsTotal.WithLabelValues(metrics.StatusFailure)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(appMetrics.KeysLoaded), 0)

	assert.Panics(t, func() { metrics.NewMetrics(reg) }, "duplicate registration must panic")
}

func TestPush(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		type pushed struct{ path, body string }
		received := make(chan pushed, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			received <- pushed{path: r.URL.Path, body: string(body)}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		reg := prometheus.NewRegistry()
		appMetrics := metrics.NewMetrics(reg)
		appMetrics.RecordsCollected.Add(5)

		err := metrics.Push(t.Context(), server.URL, reg)

		require.NoError(t, err)
		got := <-received
		assert.Equal(t, "/metrics/job/"+metrics.JobName, got.path)
		assert.NotEmpty(t, got.body)
	})

	t.Run("gateway error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		reg := prometheus.NewRegistry()
		metrics.NewMetrics(reg)

		err := metrics.Push(t.Context(), server.URL, reg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to push metrics")
	})
}
