package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SessionsCreated counts successful session creations.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Total number of sessions created.",
	})

	// SessionValidations counts token validation outcomes.
	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_validations_total",
			Help: "Total number of session token validations by outcome.",
		},
		[]string{"outcome"},
	)

	// SessionsDestroyed counts explicit session deletions.
	SessionsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_destroyed_total",
		Help: "Total number of sessions explicitly destroyed.",
	})

	// SessionsSwept counts rows removed by expiry sweeps.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_swept_total",
		Help: "Total number of expired sessions removed by sweeps.",
	})
)

// PrometheusMiddleware records request counts and latencies. The route
// template (not the raw URL) is used as the path label to keep
// cardinality bounded.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
