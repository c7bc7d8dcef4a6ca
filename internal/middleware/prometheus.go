package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghorbari/ghorbari/internal/metrics"
)

// PrometheusMiddleware observes per-route request counts and latency.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Label by route pattern, not the raw URL, so listing and
		// application IDs do not explode metric cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(elapsed)
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
