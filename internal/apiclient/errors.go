package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Status values used for failures that never produced an HTTP response.
const (
	// StatusNetworkError marks transport-level failures (no response).
	StatusNetworkError = 0
	// StatusTimeout marks attempts cancelled by the per-attempt timeout.
	StatusTimeout = http.StatusRequestTimeout
)

// APIError is the only error type the client surfaces to callers. Status
// follows the HTTP status code of the failed response, with 0 reserved for
// transport failures and 408 for client-side timeouts.
type APIError struct {
	Status  int                    `json:"status"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Retryable reports whether the failure may succeed on another attempt:
// transport errors and server errors only. Every 4xx, including 408 and 429,
// is terminal.
func (e *APIError) Retryable() bool {
	return e.Status == StatusNetworkError || e.Status >= http.StatusInternalServerError
}

// AsAPIError unwraps err into an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserMessage maps an error to a message suitable for direct display. It is
// a pure lookup: no state, no side effects.
func UserMessage(err error) string {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return "Something unexpected happened. Please try again."
	}
	switch {
	case apiErr.Status == StatusNetworkError:
		return "Unable to reach the service. Check your connection and try again."
	case apiErr.Status == StatusTimeout:
		return "The request timed out. Please try again."
	case apiErr.Status == http.StatusUnauthorized:
		return "Your session has expired. Please sign in again."
	case apiErr.Status == http.StatusForbidden:
		return "You don't have permission to do that."
	case apiErr.Status == http.StatusNotFound:
		return "We couldn't find what you were looking for."
	case apiErr.Status == http.StatusUnprocessableEntity:
		return "Some of the information provided looks invalid. Please review and try again."
	case apiErr.Status == http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case apiErr.Status >= http.StatusInternalServerError:
		return "Something went wrong on our end. Please try again in a moment."
	default:
		return "The request could not be completed. Please review and try again."
	}
}
