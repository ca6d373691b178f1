// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"recyclebin/internal/core/apperror"
	"recyclebin/pkg/logger"
)

// Recovery middleware turns a panic into INTERNAL_ERROR.
// The stack trace is logged, never sent to the client. The panic unwinds past
// ErrorHandler, so the response is written here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"method", c.Request.Method,
					"route", c.FullPath(),
					"stack", string(debug.Stack()),
				)

				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalErrorBody(c))
			}
		}()
		c.Next()
	}
}
