package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lunaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luna_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	lunaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "luna_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	lunaSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luna_sessions_total",
		Help: "Total session lifecycle events by kind.",
	}, []string{"event"})

	lunaDreamsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luna_dreams_recorded_total",
		Help: "Total dreams saved to the journal.",
	})

	lunaInterpretationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luna_interpretations_total",
		Help: "Total dream interpretations by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		lunaRequestsTotal.WithLabelValues(method, path, status).Inc()
		lunaRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSessionEvent records a login, logout, refresh, or expiry.
func RecordSessionEvent(event string) {
	lunaSessionsTotal.WithLabelValues(event).Inc()
}

// RecordDreamSaved records one journal save.
func RecordDreamSaved() {
	lunaDreamsRecordedTotal.Inc()
}

// RecordInterpretation records an interpretation attempt.
func RecordInterpretation(success bool) {
	if success {
		lunaInterpretationsTotal.WithLabelValues("success").Inc()
	} else {
		lunaInterpretationsTotal.WithLabelValues("failure").Inc()
	}
}
