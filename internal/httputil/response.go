// Package httputil provides shared HTTP response helpers for the GhorBari API.
package httputil

import "github.com/gin-gonic/gin"

// errorBody is the wire shape of every GhorBari error response.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	body := errorBody{Code: code, Message: message}

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			body.RequestID = s
		}
	}

	c.AbortWithStatusJSON(status, body)
}
