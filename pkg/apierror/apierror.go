package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared across the API surface. PATH_TRAVERSAL is special:
// handlers treat it as a security event and count it separately from
// ordinary failures.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION_ERROR"
	CodePathTraversal = "PATH_TRAVERSAL"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeLockTimeout   = "LOCK_TIMEOUT"
	CodeUnsupported   = "UNSUPPORTED_TYPE"
	CodeTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeInternal      = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func BadRequest(message string, details string) *APIError {
	return New(CodeBadRequest, message, details, http.StatusBadRequest)
}

func Validation(message string, details string) *APIError {
	return New(CodeValidation, message, details, http.StatusBadRequest)
}

// Traversal reports a containment violation. The message deliberately does
// not echo resolved filesystem paths back to the client.
func Traversal(message string, details string) *APIError {
	return New(CodePathTraversal, message, details, http.StatusForbidden)
}

func NotFound(message string, details string) *APIError {
	return New(CodeNotFound, message, details, http.StatusNotFound)
}

func Conflict(message string, details string) *APIError {
	return New(CodeConflict, message, details, http.StatusConflict)
}

func LockTimeout(message string) *APIError {
	return New(CodeLockTimeout, message, "", http.StatusServiceUnavailable)
}

// IsCode reports whether err wraps an *APIError carrying the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
