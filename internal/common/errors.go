// Package common defines shared constants and sentinel errors used across
// the storefront server layers. Callers should use errors.Is to match these
// values; services wrap them with additional context.
package common

import "errors"

var (
	// Identity store errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateIdentity = errors.New("identity already exists")

	// Credential and token errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrWrongTokenKind     = errors.New("wrong token kind")

	// Collaborator and infrastructure errors.
	ErrUploadFailed           = errors.New("upload failed")
	ErrAuthServiceUnavailable = errors.New("auth service unavailable")

	// Catalog errors.
	ErrForbidden        = errors.New("forbidden")
	ErrDuplicateProduct = errors.New("product already exists")

	// Request validation.
	ErrValidation = errors.New("validation error")
)
