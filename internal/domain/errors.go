// Package domain contains the core business entities for Athenaeum.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Not-found Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrIssueNotFound indicates the requested issue record does not exist.
	ErrIssueNotFound = errors.New("issue record not found")

	// ErrReservationNotFound indicates the requested reservation does not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ===========================================
	// Invalid-state Errors
	// ===========================================

	// ErrBookNotAvailable indicates the book is already out on loan.
	ErrBookNotAvailable = errors.New("book is not available")

	// ErrBookAvailable indicates a reservation was attempted against a book
	// that is on the shelf; the caller should issue it instead.
	ErrBookAvailable = errors.New("book is available, no need to reserve")

	// ErrAlreadyReturned indicates the issue record is already closed.
	ErrAlreadyReturned = errors.New("book already returned")

	// ===========================================
	// Directory Errors
	// ===========================================

	// ErrUserAlreadyExists indicates a user with the same username exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidRole indicates an unrecognized role name.
	ErrInvalidRole = errors.New("invalid role")

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the caller is not authorized for the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., book title, username).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
