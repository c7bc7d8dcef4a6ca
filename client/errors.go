package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is the structured error body the GhorBari API returns.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("ghorbari: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("ghorbari: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// statusIs reports whether err is an APIError with the given HTTP status.
func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsNotFound reports a 404: the property or application does not exist.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsForbidden reports a 403: the caller is not a party to the negotiation
// or lacks the required role.
func IsForbidden(err error) bool {
	return statusIs(err, http.StatusForbidden)
}

// IsConflict reports a 409: a duplicate key or a negotiation action the
// current state does not permit.
func IsConflict(err error) bool {
	return statusIs(err, http.StatusConflict)
}

// IsRateLimited reports a 429 rate limit.
func IsRateLimited(err error) bool {
	return statusIs(err, http.StatusTooManyRequests)
}

// parseAPIError decodes a JSON error body, falling back to the raw text
// for responses that did not come from the API itself (proxies, panics).
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
