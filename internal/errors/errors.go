package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a thoughts error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrSessionClosed    ErrorCode = "SESSION_CLOSED"    // 409
	ErrValidation       ErrorCode = "VALIDATION"        // 422
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
)

// ThoughtsError represents a structured error with code, status, and details.
type ThoughtsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ThoughtsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ThoughtsError {
	return &ThoughtsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(id int64) *ThoughtsError {
	return &ThoughtsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("thought record not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewSessionNotFound creates a 404 error for an unknown edit session handle.
func NewSessionNotFound(handle string) *ThoughtsError {
	return &ThoughtsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("session not found: %s", handle),
		Details: map[string]any{"session": handle},
	}
}

// NewSessionClosed creates a 409 error for edits against a session that
// can no longer be edited.
func NewSessionClosed(state string) *ThoughtsError {
	return &ThoughtsError{
		Code:    ErrSessionClosed,
		Status:  409,
		Message: fmt.Sprintf("session is %s and no longer accepts edits", state),
		Details: map[string]any{"state": state},
	}
}

// NewValidation creates a 422 error for a stored field with the wrong shape.
func NewValidation(field, msg string) *ThoughtsError {
	return &ThoughtsError{
		Code:    ErrValidation,
		Status:  422,
		Message: fmt.Sprintf("field %q: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

// NewStoreUnavailable creates a 503 error for transient backing-store failures.
// The cause is kept in Details for logging only.
func NewStoreUnavailable(err error) *ThoughtsError {
	details := map[string]any{}
	if err != nil {
		details["store_error"] = err.Error()
	}
	return &ThoughtsError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: "record store unavailable",
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the cause is kept in Details for logging.
func NewInternal(err error) *ThoughtsError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &ThoughtsError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a ThoughtsError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *ThoughtsError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// As returns the ThoughtsError in err's chain, or wraps err as INTERNAL.
func As(err error) *ThoughtsError {
	var tErr *ThoughtsError
	if stderrors.As(err, &tErr) {
		return tErr
	}
	return NewInternal(err)
}
