package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const TraceIDHeader = "X-Trace-ID"
const TraceParentHeader = "traceparent"

// SetupLogging configures the global zerolog logger with the given
// level. Unknown levels fall back to info.
func SetupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

// GetTraceID extracts trace-id from request headers or generates a new one
func GetTraceID(c *gin.Context) string {
	// W3C Trace Context first: traceparent is version-trace_id-parent_id-flags
	if traceParent := c.GetHeader(TraceParentHeader); traceParent != "" {
		parts := strings.Split(traceParent, "-")
		if len(parts) >= 2 && parts[1] != "" {
			return parts[1]
		}
	}

	if traceID := c.GetHeader(TraceIDHeader); traceID != "" {
		return traceID
	}

	return generateTraceID()
}

// generateTraceID generates a trace-id using random bytes
func generateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware creates a Gin middleware for structured request
// logging with trace-id using zerolog. The trace-id-scoped sub-logger
// is injected into the request context for downstream layers.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		traceID := GetTraceID(c)
		c.Set("trace_id", traceID)

		logger := log.With().Str("trace_id", traceID).Logger()
		ctx := logger.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceIDHeader, traceID)

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		var event *zerolog.Event
		if statusCode >= 500 {
			event = logger.Error()
		} else if statusCode >= 400 {
			event = logger.Warn()
		} else {
			event = logger.Info()
		}

		event.
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
