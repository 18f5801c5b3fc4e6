// Package common defines shared constants, helpers and sentinel errors used
// across the portal. Callers should match errors with errors.Is; user-facing
// detail is attached by wrapping, e.g. fmt.Errorf("%w: reason", ErrNotAuthorized).
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Registration workflow.
	ErrDuplicateAccount = errors.New("duplicate account")
	ErrNotAuthorized    = errors.New("not authorized to register")
	ErrInvalidToken     = errors.New("invalid token")
	ErrAdminExists      = errors.New("admin user already exists")

	// Authentication gate.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrTokenExpired       = errors.New("session expired")

	// Role-scoped content.
	ErrForbidden           = errors.New("forbidden")
	ErrDuplicateAlumni     = errors.New("duplicate alumni")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")

	// Collaborators.
	ErrMailNotConfigured = errors.New("mail transport not configured")
)
