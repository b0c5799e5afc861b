package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies application errors for transport mapping.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation_error"
	KindStorage      Kind = "storage_error"
	KindConfig       Kind = "config_error"
	KindInternal     Kind = "internal_error"
)

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message string
	Fields  []string // missing/invalid field names for validation errors
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (fields: %s)", msg, strings.Join(e.Fields, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error constructors
func NewUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewValidation(message string, fields ...string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

func NewStorage(message string, cause error) *AppError {
	return &AppError{Kind: KindStorage, Message: message, Cause: cause}
}

func NewConfig(message string) *AppError {
	return &AppError{Kind: KindConfig, Message: message}
}

func NewInternal(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindInternal
}

// AsAppError unwraps err to an *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var app *AppError
	ok := errors.As(err, &app)
	return app, ok
}

// HTTPStatus maps an error kind to its HTTP response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindStorage, KindConfig, KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
