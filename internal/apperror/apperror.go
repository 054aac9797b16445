// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return *AppError values wrapping one of the sentinels below.
// Handlers translate the sentinel to an HTTP status with errors.Is, so no
// layer below the handler ever mentions a status code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Upstream errors describe the external AI services, never our own data.
	// They are kept apart from ErrNotFound so an empty AI reply does not look
	// like a missing database row.
	ErrUpstream          = errors.New("upstream unavailable")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamMalformed = errors.New("upstream response malformed")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials are missing or wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream reports that an external service failed or answered with nothing usable.
func Upstream(service, message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s: %s", service, message),
	}
}

// UpstreamTimeout reports that an external service did not answer in time.
func UpstreamTimeout(service string) *AppError {
	return &AppError{
		Err:     ErrUpstreamTimeout,
		Message: fmt.Sprintf("%s did not respond in time", service),
	}
}

// UpstreamMalformed reports a reply that arrived but could not be parsed.
// field names the piece of the expected format that was missing.
func UpstreamMalformed(service, field, message string) *AppError {
	return &AppError{
		Err:     ErrUpstreamMalformed,
		Message: fmt.Sprintf("%s: %s", service, message),
		Field:   field,
	}
}
