package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "finly/internal/errors"
	"finly/internal/logger"
)

// RenderError writes err as the standard {"error": {"code", "message"}} body.
// AppErrors keep their status; anything else is logged and reported as a
// generic internal error so persistence details never reach clients.
func RenderError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"request_id", c.GetString(requestIDKey),
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", c.GetString(requestIDKey),
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorHandler returns a Gin middleware that renders the last error attached
// to the context with c.Error when no response has been written yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RenderError(c, c.Errors.Last().Err)
	}
}

// NotFound renders unknown routes with the standard error body.
func NotFound(c *gin.Context) {
	RenderError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Route not found"))
}
