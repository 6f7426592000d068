package middleware

import (
	"strconv"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latencies per matched route.
func Metrics(m *metrics.HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.Durations.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
