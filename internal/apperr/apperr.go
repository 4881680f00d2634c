package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status and a wire-safe message through the
// service layer up to the error-rendering middleware.
type AppError struct {
	Status  int      `json:"-"`
	Code    string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) WithCause(err error) *AppError {
	clone := *e
	clone.cause = err
	return &clone
}

func Validation(message string, fields ...string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "validation_failed", Message: message, Fields: fields}
}

func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "forbidden", Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "conflict", Message: message}
}

func MailDelivery(err error) *AppError {
	return (&AppError{
		Status:  http.StatusInternalServerError,
		Code:    "mail_delivery_failed",
		Message: "There was an error sending the email. Try again later.",
	}).WithCause(err)
}

func Internal(err error) *AppError {
	return (&AppError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Something went wrong",
	}).WithCause(err)
}

// From normalizes any error into an AppError, defaulting to Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
