package utils

import (
	"net/http"

	"cleanly/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// JSONAppError renders a lifecycle error. Business-rule failures are logged at
// info, collaborator failures at error, and each carries its kind as code.
func JSONAppError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	logger := GetLogger().With(zap.String("path", c.FullPath()), zap.String("code", string(kind)))
	if apperr.IsBusinessRule(err) {
		logger.Info("request rejected", zap.Error(err))
	} else {
		logger.Error("request failed", zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Message: apperr.UserMessage(err), Code: string(kind)})
}
