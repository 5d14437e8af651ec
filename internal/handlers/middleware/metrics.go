package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Requests handled by the gateway, by method and status code.",
		},
		[]string{"method", "code"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_guard_decisions_total",
			Help: "Access decisions emitted by the session guard.",
		},
		[]string{"decision"},
	)
)

// ObserveDecision counts one guard decision.
func ObserveDecision(d models.AccessDecision) {
	decisionsTotal.WithLabelValues(d.String()).Inc()
}

type metricsWriter struct {
	http.ResponseWriter
	status int
}

func (w *metricsWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mw := &metricsWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(mw, r)

			requestsTotal.WithLabelValues(r.Method, strconv.Itoa(mw.status)).Inc()
		})
	}
}
