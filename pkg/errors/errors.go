// Package errors defines the error vocabulary of the reviews service:
// a missing product or review, bad input from the storefront, or a
// failed call against the remote commerce platform.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrRemote       = errors.New("remote store error")
)

// AppError carries a wire-level code and HTTP status alongside the
// wrapped cause.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Remote creates a 502 error for a failed call against the external
// commerce platform. The wrapped cause carries the transport or
// GraphQL detail; the message stays generic so handlers can surface
// it without leaking internals.
func Remote(operation string, err error) *AppError {
	return &AppError{
		Code:    "REMOTE_ERROR",
		Message: fmt.Sprintf("%s failed against remote store", operation),
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrRemote, err),
	}
}

// HTTPStatus maps an error to the status code handlers should write.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsRemote reports whether the error originated from the external store.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}
