// Package http implements the REST API for MoodGarden Hub.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMETHEUS METRICS
// ══════════════════════════════════════════════════════════════════════════════

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodgarden",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moodgarden",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	rankingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodgarden",
			Subsystem: "leaderboard",
			Name:      "ranking_requests_total",
			Help:      "Leaderboard requests by category, period and outcome.",
		},
		[]string{"category", "period", "outcome"},
	)
)

// metricsHandler returns the Prometheus exposition endpoint.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// observeRankingRequest records the outcome of a leaderboard request.
func observeRankingRequest(category, period, outcome string) {
	rankingRequestsTotal.WithLabelValues(category, period, outcome).Inc()
}

// metricsMiddleware records request counts and latency.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// URL.Path keeps label cardinality bounded: the API has no
		// path parameters.
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
