package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/service"
)

// Metrics records per-route latency and status counts. Scrape and probe
// endpoints are excluded so the histograms reflect portal traffic only.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if metricsSvc == nil || path == "/metrics" || path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
