package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/calendar/internal/metrics"
)

// RequestLogger returns a middleware that logs every request.
// It logs the route, client, status, duration, and any handler errors.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Milliseconds()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"client", GetClient(c.Request.Context()),
			"duration_ms", duration,
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			slog.Error("HTTP error", append(attrs, "error", c.Errors.String())...)
		case status >= 400:
			slog.Warn("HTTP error", append(attrs, "error", c.Errors.String())...)
		default:
			slog.Info("HTTP ok", attrs...)
		}
	}
}

// Instrument returns a middleware that records request counts and latency.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
