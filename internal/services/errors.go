package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ServiceError for transport mapping.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindInternal     ErrorKind = "internal"
)

// ServiceError is the typed failure returned by every service operation.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func newUnauthorized(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: message}
}

func newForbidden(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message}
}

func newNotFound(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func newValidation(message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message}
}

// Storage failures are opaque to callers; the cause is kept for logging.
func newInternal(cause error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: "internal error", Cause: cause}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == kind
}
