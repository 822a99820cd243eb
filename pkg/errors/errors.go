package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeInvalid     ErrorType = "invalid_request"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Graph API or transport error with type information.
// Code is the HTTP status; GraphCode is the numeric code from the Graph
// error envelope when one was returned.
type Error struct {
	Type      ErrorType
	Message   string
	Code      int
	GraphCode int
	Err       error
}

func (e *Error) Error() string {
	if e.GraphCode != 0 {
		return fmt.Sprintf("%s error (code %d, graph code %d): %s", e.Type, e.Code, e.GraphCode, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(errType ErrorType, code int, message string) *Error {
	return &Error{Type: errType, Message: message, Code: code}
}

// Wrap creates an Error that keeps err as its cause
func Wrap(errType ErrorType, err error, message string) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 429:
		return true
	case 400, 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// TypeFromStatus maps an HTTP status code to an ErrorType
func TypeFromStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 400:
		return ErrorTypeInvalid
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// Graph error codes that carry more meaning than the HTTP status
const (
	GraphCodeUnknown        = 1
	GraphCodeService        = 2
	GraphCodeAppThrottle    = 4
	GraphCodeUserThrottle   = 17
	GraphCodePageThrottle   = 32
	GraphCodeInvalidParam   = 100
	GraphCodeInvalidToken   = 190
	GraphCodeCustomThrottle = 613
)

// TypeFromGraphCode refines an ErrorType using the Graph error code. The
// Graph API reports throttling and transient failures with HTTP 400 or 403,
// so the code takes precedence over the status.
func TypeFromGraphCode(statusCode, graphCode int) ErrorType {
	switch graphCode {
	case GraphCodeAppThrottle, GraphCodeUserThrottle, GraphCodePageThrottle, GraphCodeCustomThrottle:
		return ErrorTypeRateLimit
	case GraphCodeUnknown, GraphCodeService:
		return ErrorTypeServerError
	case GraphCodeInvalidToken:
		return ErrorTypeAuth
	case GraphCodeInvalidParam:
		if statusCode == 404 {
			return ErrorTypeNotFound
		}
		return ErrorTypeInvalid
	default:
		return TypeFromStatus(statusCode)
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsRetryableError reports whether err carries a retryable ErrorType
func IsRetryableError(err error) bool {
	return IsRetryable(TypeOf(err))
}
