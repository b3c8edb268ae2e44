// Package apperrors defines the error taxonomy shared by every controller.
//
// Stores and services return *Error values (or plain errors, which are
// treated as store failures); httputil.WriteAppError turns them into a
// response envelope with the matching status code.
package apperrors

import (
	"errors"
	"net/http"

	"github.com/lib/pq"

	"github.com/platinummonkey/staffing/pkg/validation"
)

// Kind classifies an error for the controller boundary
type Kind int

const (
	KindStore Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	return []string{"store", "validation", "authentication", "authorization", "not_found", "conflict"}[k]
}

// StatusCode returns the HTTP status for the kind
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input
func Validation(message string, fields []validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Authentication reports a missing, invalid or expired session
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization reports a valid session with insufficient role or tenant scope
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NotFound reports an absent resource or one outside the caller's tenant
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a uniqueness violation
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Store wraps a storage failure
func Store(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// FromStore classifies a driver error. Unique violations become conflicts
// carrying conflictMessage, everything else a store error.
func FromStore(err error, message, conflictMessage string) *Error {
	if IsUniqueViolation(err) {
		return &Error{Kind: KindConflict, Message: conflictMessage, Err: err}
	}
	return Store(message, err)
}

// IsUniqueViolation reports whether err carries Postgres error 23505
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// KindOf returns the kind of err, KindStore for unclassified errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
