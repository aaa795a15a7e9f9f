package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger := GetLogger()
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

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
	logger := GetLogger()
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.String("details", details), zap.Int("status", status))
	} else {
		logger.Warn(message, zap.String("details", details), zap.Int("status", status))
	}
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError maps a service error onto its HTTP status and writes it.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		GetLogger().Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		JSONError(c, status, message, "An unexpected error occurred. Please try again later.")
		return
	}
	JSONError(c, status, message, err.Error())
}
