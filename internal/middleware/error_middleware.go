package middleware

import (
	"sensasi-chat/internal/services"
	"sensasi-chat/internal/transport/httpdto"
	"sensasi-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler is the last-resort translator for errors handlers attached
// to the gin context instead of writing themselves.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), services.ErrorCode(err)))
	}
}
