package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
)

// ReadOnlyMiddleware rejects every method that could change state.
func ReadOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			c.Error(apperrors.New(apperrors.ErrReadOnly, "the audit viewer is read-only", nil))
			c.Abort()
		}
	}
}
