package middleware

import (
	"strconv" // Status code formatting
	"time"    // Time durations

	"artisanhub/internal/metrics" // Prometheus collectors

	"github.com/gin-gonic/gin" // Gin web framework
)

// Metrics records request count and latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Request start time
		c.Next()            // Process request

		route := c.FullPath() // Route template, e.g. /api/products/products/:id
		if route == "" {
			route = "unmatched" // Keeps label cardinality bounded on 404s
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
