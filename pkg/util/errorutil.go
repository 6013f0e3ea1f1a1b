package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for expected failure kinds. Callers branch on Code, not on
// error identity, so UI layers can render distinct messages per kind.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeRepositoryError   = "REPOSITORY_ERROR"
	CodeMalformedInput    = "MALFORMED_INPUT"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeExpired           = "EXPIRED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidTransition reports a status graph violation.
func NewInvalidTransition(current, next string) error {
	return &DomainError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot transition from %q to %q", current, next),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"current": current, "next": next},
	}
}

// NewRepositoryError wraps an unexpected persistence failure. The only
// possibly-transient kind; everything else is deterministic for the same inputs.
func NewRepositoryError(err error) error {
	return &DomainError{
		Code:       CodeRepositoryError,
		Message:    "repository operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewMalformedInput reports a missing or unparseable token.
func NewMalformedInput(message string) error {
	return NewDomainError(CodeMalformedInput, message, http.StatusBadRequest, nil)
}

// NewInvalidSignature reports a tampered token or wrong signing key.
func NewInvalidSignature() error {
	return NewDomainError(CodeInvalidSignature, "token signature is invalid", http.StatusUnauthorized, nil)
}

// NewExpired reports a token past its TTL.
func NewExpired() error {
	return NewDomainError(CodeExpired, "token has expired", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
