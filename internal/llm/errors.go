package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a completion failure for the retry policy and for callers.
type ErrorKind string

const (
	KindAuth       ErrorKind = "AuthError"
	KindBadRequest ErrorKind = "BadRequestError"
	KindNotFound   ErrorKind = "NotFoundError"
	KindRateLimit  ErrorKind = "RateLimitError"
	KindServer     ErrorKind = "ServerError"
	KindNetwork    ErrorKind = "NetworkError"
	// KindRequest is the fallback for status codes outside the known table.
	// It is terminal so an unrecognized failure mode never loops forever.
	KindRequest ErrorKind = "RequestError"
)

// APIError is a classified completion endpoint failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// statusKinds maps exact provider status codes to error kinds. 5xx is handled
// as a range in ClassifyStatus.
var statusKinds = map[int]ErrorKind{
	400: KindBadRequest,
	401: KindAuth,
	403: KindAuth,
	404: KindNotFound,
	429: KindRateLimit,
}

// ClassifyStatus converts a non-2xx provider response into an APIError.
func ClassifyStatus(status int, message string) *APIError {
	kind, ok := statusKinds[status]
	if !ok {
		if status >= 500 && status < 600 {
			kind = KindServer
		} else {
			kind = KindRequest
		}
	}
	if message == "" {
		message = "request failed"
	}
	return &APIError{Kind: kind, StatusCode: status, Message: message}
}

// NetworkError wraps a transport-level failure (connection refused, DNS, timeout).
func NetworkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: err.Error()}
}

// Retryable reports whether err carries a transient classification.
// Unclassified errors are treated as terminal.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// KindOf extracts the classification from err, or KindRequest if unclassified.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindRequest
}
