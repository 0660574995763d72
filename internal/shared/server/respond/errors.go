package respond

import (
	"github.com/gin-gonic/gin"

	"lexiguide-backend/internal/shared/telemetry"
)

// ErrorResponse is the error body sent to clients. The "error" key carries a
// human-readable message; "code" is a stable machine tag.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error sends a standardized error response and logs it.
func Error(c *gin.Context, status int, code, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
