package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/parkapi/internal/api/metrics"
)

// Metrics records request count and latency per route template, so
// /api/v1/users/1 and /api/v1/users/2 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
