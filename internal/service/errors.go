// Package service provides business logic services for Athenaeum.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidUsername    = errors.New("invalid username: must be 3-255 characters")
	ErrInvalidName        = errors.New("invalid name: must not be empty")

	// Loan errors
	ErrInvalidFineAmount = errors.New("invalid fine amount: must not be negative")
	ErrBookBusy          = errors.New("book is being processed by another request")

	// Catalog errors
	ErrInvalidTitle       = errors.New("invalid title: must not be empty")
	ErrInvalidAuthor      = errors.New("invalid author: must not be empty")
	ErrInvalidSearchField = errors.New("invalid search field: must be title, author, isbn, or genre")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
