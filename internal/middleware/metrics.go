package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/metrics"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		// Route templates keep label cardinality bounded.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.LatencyBucket.WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).Observe(duration)
	}
}
