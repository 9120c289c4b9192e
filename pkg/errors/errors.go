// Package errors defines the application error type shared by handlers,
// services and HTTP clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnprocessable  = errors.New("unprocessable request")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError carries the status and machine-readable code a handler answers
// with. Message is safe to show to clients; Err is not.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Status: http.StatusBadRequest, Err: ErrInvalidInput}
}

// Unauthorized creates a 401 error. A non-nil cause is joined with
// ErrUnauthorized so callers can match either one.
func Unauthorized(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: http.StatusUnauthorized, Err: join(ErrUnauthorized, cause)}
}

// Unprocessable creates a 422 error for a well-formed request the current
// state cannot honor.
func Unprocessable(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: http.StatusUnprocessableEntity, Err: join(ErrUnprocessable, cause)}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{Code: "SERVICE_UNAVAILABLE", Message: message, Status: http.StatusServiceUnavailable, Err: ErrServiceUnavail}
}

// kind maps a bare sentinel to its response. Only INVALID_INPUT echoes the
// error text; the others may carry internal detail.
type kind struct {
	sentinel error
	status   int
	code     string
	message  string
}

var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{ErrConflict, http.StatusConflict, "CONFLICT", "resource conflict"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", ""},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{ErrUnprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE", "request cannot be processed"},
	{ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
}

// Describe returns the status, code and client-safe message for err. An
// *AppError anywhere in the chain wins over bare sentinels; anything else is
// a 500 INTERNAL_ERROR.
func Describe(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if k.message == "" {
				return k.status, k.code, err.Error()
			}
			return k.status, k.code, k.message
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Describe(err)
	return status
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}
