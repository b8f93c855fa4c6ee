// Package common defines shared constants and sentinel errors used across
// pilotkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrorDuplicateKey = errors.New("duplicate key")
	ErrorStorage      = errors.New("storage error")

	// Artifact errors (fingerprint image read/write failures).
	ErrorIO = errors.New("io error")

	// Session lifecycle errors.
	ErrorSessionTeardown = errors.New("session teardown failed")

	// Service-level errors.
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
