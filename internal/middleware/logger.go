package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdash/taskdash-api/pkg/logger"
)

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger(lg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		lg.ZL.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(ContextRequestID)).
			Msg("request")
	}
}
