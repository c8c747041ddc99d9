package utils

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// ReportRecomputes counts full dashboard recomputations.
	ReportRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_report_recomputes_total",
		Help: "Dashboard aggregations computed from a snapshot.",
	})

	// SyncFailures counts failed collection fetches from the data API.
	SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_sync_failures_total",
		Help: "Snapshot refresh failures by collection.",
	}, []string{"collection"})
)

// Metrics records a counter and latency observation per request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
