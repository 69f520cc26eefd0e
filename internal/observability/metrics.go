// Package observability exposes Prometheus metrics for the HTTP layer, the
// RPC layer and the settlement engine.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/tallyup/internal/settlement"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rpcTotal           *prometheus.CounterVec
	settlementsTotal   *prometheus.CounterVec
	settlementDuration prometheus.Histogram
	settlementSize     *prometheus.HistogramVec
}

var _ settlement.Observer = (*Metrics)(nil)

// NewMetrics initializes the registry and all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallyup_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tallyup_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rpcs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallyup_rpc_requests_total",
		Help: "RPCs by procedure and Connect code.",
	}, []string{"procedure", "code"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tallyup_settlements_total",
		Help: "Settlement computations by outcome.",
	}, []string{"outcome"})
	settleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tallyup_settlement_duration_seconds",
		Help:    "Time spent computing balances and transfers.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	settleSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tallyup_settlement_size",
		Help:    "Members, expenses and transfers per settlement.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"kind"})
	registry.MustRegister(requests, duration, rpcs, settlements, settleDuration, settleSize)
	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:      requests,
		requestDuration:    duration,
		rpcTotal:           rpcs,
		settlementsTotal:   settlements,
		settlementDuration: settleDuration,
		settlementSize:     settleSize,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Interceptor counts RPCs by procedure and result code.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if m != nil {
				code := "ok"
				if err != nil {
					code = connect.CodeOf(err).String()
				}
				m.rpcTotal.WithLabelValues(req.Spec().Procedure, code).Inc()
			}
			return resp, err
		}
	}
}

// ObserveSettlement implements settlement.Observer.
func (m *Metrics) ObserveSettlement(members, expenses, transfers int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.settlementsTotal.WithLabelValues(outcome(err)).Inc()
	m.settlementDuration.Observe(elapsed.Seconds())
	m.settlementSize.WithLabelValues("members").Observe(float64(members))
	m.settlementSize.WithLabelValues("expenses").Observe(float64(expenses))
	if err == nil {
		m.settlementSize.WithLabelValues("transfers").Observe(float64(transfers))
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, settlement.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, settlement.ErrInconsistentSplit):
		return "inconsistent"
	case errors.Is(err, settlement.ErrInvalidMembers):
		return "invalid_members"
	default:
		return "error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
