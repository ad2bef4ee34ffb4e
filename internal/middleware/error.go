package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
)

// ErrorHandler renders the last error attached to the context. Causes are
// logged, never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.Wrap(c.Errors.Last().Err)

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ContextRequestID),
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "request failed", logFields...)
		} else {
			logger.Warn(appErr.Message, logFields...)
		}

		c.JSON(appErr.HTTPStatus, appErr)
	}
}
