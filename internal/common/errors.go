// Package common defines shared constants and sentinel errors used across
// the server layers of oakboard. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Credential errors surfaced by login and account operations.
	ErrorInvalidLoginPassword = errors.New("invalid login/password")
	ErrorPasswordMismatch     = errors.New("passwords do not match")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Startup errors.
	ErrWeakSecret = errors.New("secret key is too short")
)
