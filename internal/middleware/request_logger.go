package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
)

// RequestLogger logs one line per request through the structured logger so
// API traffic and engine logs land in the same stream.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			reqLog.Error("request failed", fields...)
			return
		}
		reqLog.Info("request", fields...)
	}
}
