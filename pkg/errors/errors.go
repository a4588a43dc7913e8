package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a failure in the download pipeline
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeRemux      ErrorType = "remux"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// ErrExtractionUnavailable marks an item for which no media-producing
// strategy exists. It is a terminal state, not a failure.
var ErrExtractionUnavailable = stderrors.New("no extraction method available")

// Error is a typed pipeline error.
// Code holds the HTTP status for network errors and the exit code for remux errors.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error", e.Type)
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.URL != "" {
		fmt.Fprintf(&b, " [%s]", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// NewNetworkError builds the error for a failed fetch. Every status is a
// network error; StatusCategory gives the finer reading of Code. A zero code
// means the request never produced a response.
func NewNetworkError(url string, code int, err error) *Error {
	msg := "request failed"
	if code != 0 {
		msg = fmt.Sprintf("unexpected HTTP status %d", code)
	}
	return &Error{Type: ErrorTypeNetwork, Message: msg, Code: code, URL: url, Err: err}
}

// StatusCategory maps an HTTP status to the category a user acts on
func StatusCategory(code int) ErrorType {
	switch code {
	case 401, 403:
		return ErrorTypeAuth
	case 404:
		return ErrorTypeNotFound
	case 429:
		return ErrorTypeRateLimit
	default:
		return ErrorTypeNetwork
	}
}

func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrorTypeParse, Message: message, Err: err}
}

// NewRemuxError wraps a failed multiplexer run. Only the tail of stderr is kept.
func NewRemuxError(exitCode int, stderr string, err error) *Error {
	msg := "ffmpeg failed"
	if tail := lastLines(stderr, 5); tail != "" {
		msg += ": " + tail
	}
	return &Error{Type: ErrorTypeRemux, Message: msg, Code: exitCode, Err: err}
}

func NewValidationError(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message}
}

// TypeOf returns the ErrorType of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// CategoryOf is TypeOf with network errors refined by their HTTP status
func CategoryOf(err error) ErrorType {
	var e *Error
	if !stderrors.As(err, &e) {
		return ErrorTypeUnknown
	}
	if e.Type == ErrorTypeNetwork {
		return StatusCategory(e.Code)
	}
	return e.Type
}

// Is reports whether err carries the given type anywhere in its chain
func Is(err error, t ErrorType) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Type {
	case ErrorTypeRateLimit:
		return true
	case ErrorTypeNetwork:
		return IsRetryableStatusCode(e.Code)
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // transport error
		return true
	case 408, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
