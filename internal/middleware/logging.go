package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

// RequestLogger logs one line per request, including any errors handlers
// attached with c.Error.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
		}
		switch {
		case len(c.Errors) > 0:
			reqLog.Error("Request failed", append(fields, "errors", c.Errors.String())...)
		case status >= 500:
			reqLog.Error("Request failed", fields...)
		case status >= 400:
			reqLog.Info("Request rejected", fields...)
		default:
			reqLog.Debug("Request served", fields...)
		}
	}
}
