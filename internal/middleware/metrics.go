package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency labelled by route template, so
// path parameters such as university ids never become label values.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
