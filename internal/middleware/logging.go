package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
)

// RequestLogger logs every request and records it in the HTTP metrics.
func RequestLogger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		for _, e := range c.Errors {
			log.WithError(e.Err).WithField("path", endpoint).Error("Request failed")
		}
		log.HTTPRequest(c.Request.Method, endpoint, c.ClientIP(), GetIdentity(c).ID, status, elapsed.Milliseconds())
		m.RecordHTTPRequest(c.Request.Method, endpoint, status, elapsed)
	}
}
