package exa

import (
	"fmt"
	"net/http"
	"time"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

// APIError describes a failed call to the Exa API.
type APIError struct {
	Type       types.ErrorType `json:"type"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Retryable  bool            `json:"retryable"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *APIError) IsRetryable() bool {
	return e.Retryable
}

// NewAPIError creates a non-retryable error of the given type.
func NewAPIError(errType types.ErrorType, message string) *APIError {
	return &APIError{
		Type:      errType,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now(),
	}
}

// ClassifyHTTPError maps a non-2xx Exa response to an APIError. The upstream
// message is passed through when the body carried one.
func ClassifyHTTPError(statusCode int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("Exa API error: %s", http.StatusText(statusCode))
	} else {
		message = fmt.Sprintf("Exa API error: %s", message)
	}

	err := &APIError{
		Message:    message,
		StatusCode: statusCode,
		Timestamp:  time.Now(),
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		err.Type = types.ErrorTypeAuthentication
	case statusCode == http.StatusTooManyRequests:
		err.Type = types.ErrorTypeRateLimit
		err.Retryable = true
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		err.Type = types.ErrorTypeInvalidArgument
	case statusCode >= 500:
		err.Type = types.ErrorTypeUpstream
		err.Retryable = true
	default:
		err.Type = types.ErrorTypeUpstream
	}

	return err
}
