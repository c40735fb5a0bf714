package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes of the client error taxonomy.
const (
	CodeNetwork         = "NETWORK_ERROR"
	CodeFetch           = "FETCH_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodePartialFailure  = "PARTIAL_FAILURE"
)

// Severity separates failures worth retrying from ones the backend refused.
type Severity int

const (
	// SeverityRejected means the backend understood and refused the request.
	SeverityRejected Severity = iota
	// SeverityTransient means the request may succeed if repeated later.
	SeverityTransient
	// SeverityWarning means the operation partly succeeded.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityTransient:
		return "transient"
	case SeverityWarning:
		return "warning"
	default:
		return "rejected"
	}
}

// AppError is the single error type surfaced by repositories and services.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.ReplaceAll(e.Code, "_", " ")))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Severity classifies the error for presentation.
func (e *AppError) Severity() Severity {
	switch e.Code {
	case CodeNetwork:
		return SeverityTransient
	case CodePartialFailure:
		return SeverityWarning
	case CodeFetch:
		if e.Status >= 500 || e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests {
			return SeverityTransient
		}
	}
	return SeverityRejected
}

// NewNetworkError wraps a transport failure where no response was received.
func NewNetworkError(err error) *AppError {
	return &AppError{Code: CodeNetwork, Message: "network error", Err: err}
}

// NewFetchError reports a generic non-2xx response.
func NewFetchError(status int, message string) *AppError {
	return &AppError{Code: CodeFetch, Status: status, Message: message}
}

// NewNotFoundError reports a 404.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewForbiddenError reports a write the backend (or the local access check) refused.
func NewForbiddenError(status int, message string) *AppError {
	return &AppError{Code: CodeForbidden, Status: status, Message: message}
}

// NewValidationError reports a payload rejected for field problems.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewUnauthenticatedError reports a missing or expired session.
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, Message: message}
}

// NewPartialFailureError reports an operation whose first step succeeded
// and whose follow-up step failed.
func NewPartialFailureError(message string, err error) *AppError {
	return &AppError{Code: CodePartialFailure, Message: message, Err: err}
}

// CodeOf returns the taxonomy code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// SeverityOf classifies any error. Foreign errors are treated as transient
// unless they are context cancellations.
func SeverityOf(err error) Severity {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Severity()
	}
	if errors.Is(err, context.Canceled) {
		return SeverityRejected
	}
	return SeverityTransient
}

func hasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return hasCode(err, CodeNetwork) }

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsForbidden reports whether err is an authorization refusal.
func IsForbidden(err error) bool { return hasCode(err, CodeForbidden) }

// IsValidation reports whether err is a payload rejection.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsUnauthenticated reports whether err signals a missing session.
func IsUnauthenticated(err error) bool { return hasCode(err, CodeUnauthenticated) }

// IsPartialFailure reports whether err is a partial-success warning.
func IsPartialFailure(err error) bool { return hasCode(err, CodePartialFailure) }

// NetworkErrorMessage is shown when a request never reached the backend.
const NetworkErrorMessage = "Network error."

// UserMessage returns the text to show for err: the backend's own message
// when it sent one, a network notice for transport failures, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	if appErr.Code == CodeNetwork {
		return NetworkErrorMessage
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
