package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// histogramCount returns the sample count of one histogram series.
func histogramCount(t *testing.T, vec *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	obs, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	m := &dto.Metric{}
	require.NoError(t, obs.(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func metricsRouter(svc string, h http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(svc))
	r.Get("/products/{id}", h)
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := metricsRouter("count-svc", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"1", "2", "3"} {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/products/"+id).Code)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("count-svc", "GET", "/products/{id}", "200"))
	assert.Equal(t, float64(3), got)
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	r := metricsRouter("unmatched-svc", func(http.ResponseWriter, *http.Request) {})

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nowhere").Code)

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched-svc", "GET", unmatchedRoute, "404"))
	assert.Equal(t, float64(1), got)
}

func TestPrometheusMetrics_StatusCodes(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusConflict, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			svc := "status-" + http.StatusText(code)
			r := metricsRouter(svc, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			})

			serve(r, http.MethodGet, "/products/9")

			count := histogramCount(t, httpRequestDuration, svc, "GET", "/products/{id}", strconv.Itoa(code))
			assert.Equal(t, uint64(1), count)
		})
	}
}

func TestPrometheusMetrics_DefaultStatusAndSize(t *testing.T) {
	r := metricsRouter("size-svc", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})

	serve(r, http.MethodGet, "/products/1")

	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues("size-svc", "GET", "/products/{id}", "200")))
	assert.Equal(t, uint64(1), histogramCount(t, httpResponseSize, "size-svc", "/products/{id}"))
}

func TestPrometheusMetrics_InFlight(t *testing.T) {
	gauge := httpRequestsInFlight.WithLabelValues("inflight-svc")
	var during float64
	r := metricsRouter("inflight-svc", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(gauge)
	})

	serve(r, http.MethodGet, "/products/1")

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge))
}
