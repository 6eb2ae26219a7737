package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "finly/internal/errors"
)

// RequireSelf rejects requests whose path parameter names a user other than
// the authenticated one. It must run after AuthMiddleware.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != c.GetString(UserIDKey) {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireSelfQuery is RequireSelf for an optional query parameter. Requests
// without the parameter pass through.
func RequireSelfQuery(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if value, ok := c.GetQuery(key); ok && value != c.GetString(UserIDKey) {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
