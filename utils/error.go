package utils

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message  string      `json:"error"`
	Details  string      `json:"details,omitempty"`
	Conflict interface{} `json:"conflict,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.Int("status", status), zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError maps err onto the matching status. Server-side failures keep
// their details out of the response body.
func RespondError(c *gin.Context, message string, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Message: message, Details: err.Error()}

	var ce *ConflictError
	if errors.As(err, &ce) {
		resp.Conflict = ce
	}

	if status >= http.StatusInternalServerError {
		GetLogger().Error(message,
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		resp.Details = "An unexpected error occurred. Please try again later."
	} else {
		GetLogger().Warn(message, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}
