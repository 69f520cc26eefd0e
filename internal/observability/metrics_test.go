package observability

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tallyup/internal/settlement"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `tallyup_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `tallyup_http_request_duration_seconds_bucket{route="/test"`)
}

func TestMetricsObserveSettlement(t *testing.T) {
	metrics := NewMetrics()

	metrics.ObserveSettlement(3, 10, 2, time.Millisecond, nil)
	metrics.ObserveSettlement(3, 10, 2, time.Millisecond, nil)
	metrics.ObserveSettlement(900, 0, 0, time.Microsecond, fmt.Errorf("wrapped: %w", settlement.ErrLimitExceeded))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.settlementsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.settlementsTotal.WithLabelValues("limit_exceeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.settlementDuration))

	body := scrape(t, metrics)
	assert.True(t, strings.Contains(body, "tallyup_settlement_duration_seconds_count 3"), body)
	assert.Contains(t, body, `tallyup_settlement_size_count{kind="transfers"} 2`)
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	next := http.NotFoundHandler()
	assert.NotNil(t, metrics.Middleware(next))
	assert.NotPanics(t, func() { metrics.ObserveSettlement(1, 1, 0, 0, nil) })
}
