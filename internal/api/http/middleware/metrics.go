package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tes-app/tes-backend/internal/metrics"
)

// MetricsMiddleware counts responses by status code.
func MetricsMiddleware(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		rec.RecordHTTPStatus(c.Writer.Status())
	}
}
