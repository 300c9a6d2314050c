package password

import "errors"

// Public, stable errors for callers.
var (
	ErrEmptyPassword    = errors.New("empty password")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")

	// ErrInvalidHash is internal to decoding; Verify reports it as a plain mismatch.
	ErrInvalidHash = errors.New("invalid password hash")
)
