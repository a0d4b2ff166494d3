package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lingoleap/api/internal/apperror"
)

type errorBody struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// abort records err and stops the chain; ErrorHandler renders it.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error attached with c.Error as
// {"status", "message", "errors"}. Server-side failures are logged with
// their cause; the cause is never sent to the client.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		if appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("request_id", RequestID(c)),
				zap.Int("status", appErr.Status),
				zap.Error(errors.Unwrap(appErr)),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.Status, errorBody{Status: appErr.Status, Message: appErr.Message, Errors: appErr.Fields})
	}
}

// Recovery turns panics into a 500 in the same shape as other errors.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestID(c)),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Status:  http.StatusInternalServerError,
			Message: "internal server error",
		})
	})
}

// NotFound handles unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Status: http.StatusNotFound, Message: "route not found"})
	}
}
