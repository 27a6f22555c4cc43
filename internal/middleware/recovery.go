package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskdash/taskdash-api/internal/handler"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

// Recovery converts panics into 500 responses instead of crashing the
// process.
func Recovery(lg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				lg.ZL.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
			}
		}()
		c.Next()
	}
}
