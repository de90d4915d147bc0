package auth

import "errors"

// Authentication errors.
var (
	// ErrMissingAuthorizationHeader indicates no Authorization header was sent.
	ErrMissingAuthorizationHeader = errors.New("missing authorization header")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrInvalidToken indicates the token failed signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
