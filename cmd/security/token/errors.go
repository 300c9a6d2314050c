package token

import "errors"

// Verification failures. Every Verify error is exactly one of these.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Configuration errors.
var (
	ErrSecretMissing  = errors.New("token signing secret missing")
	ErrSecretTooShort = errors.New("token signing secret too short")
	ErrConfig         = errors.New("invalid token config")
)
