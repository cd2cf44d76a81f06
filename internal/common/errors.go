package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and transport mapping.
type Kind string

const (
	KindNoTenantAssignment   Kind = "NO_TENANT_ASSIGNMENT"
	KindAmbiguousTenant      Kind = "AMBIGUOUS_TENANT"
	KindInsufficientRole     Kind = "INSUFFICIENT_ROLE"
	KindTenantMismatch       Kind = "TENANT_MISMATCH"
	KindCrossTenantReference Kind = "CROSS_TENANT_REFERENCE"
	KindNotFound             Kind = "NOT_FOUND"
	KindDayFull              Kind = "DAY_FULL"
	KindSlotFull             Kind = "SLOT_FULL"
	KindUnavailable          Kind = "UNAVAILABLE"
	KindInvalid              Kind = "INVALID"
	KindUnauthenticated      Kind = "UNAUTHENTICATED"
	KindInternal             Kind = "INTERNAL"
)

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Msg     string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNoTenantAssignment   = &Error{Kind: KindNoTenantAssignment}
	ErrAmbiguousTenant      = &Error{Kind: KindAmbiguousTenant}
	ErrInsufficientRole     = &Error{Kind: KindInsufficientRole}
	ErrTenantMismatch       = &Error{Kind: KindTenantMismatch}
	ErrCrossTenantReference = &Error{Kind: KindCrossTenantReference}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrDayFull              = &Error{Kind: KindDayFull}
	ErrSlotFull             = &Error{Kind: KindSlotFull}
	ErrUnavailable          = &Error{Kind: KindUnavailable}
	ErrInvalid              = &Error{Kind: KindInvalid}
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
)

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// NotFound reports that resource does not exist within the caller's tenant.
// The message is identical whether or not it exists elsewhere.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Msg: resource + " not found"}
}

// InsufficientRole carries the required and actual role for logs. The
// details are never written to responses.
func InsufficientRole(required, actual string) *Error {
	if actual == "" {
		actual = "NONE"
	}
	return &Error{
		Kind:    KindInsufficientRole,
		Msg:     fmt.Sprintf("role %s does not satisfy required role %s", actual, required),
		Details: map[string]string{"required": required, "actual": actual},
	}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNoTenantAssignment, KindAmbiguousTenant:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInsufficientRole:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDayFull, KindSlotFull:
		return http.StatusConflict
	case KindTenantMismatch, KindCrossTenantReference, KindInvalid:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
