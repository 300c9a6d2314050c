package credential

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("account already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("account not found")
	ErrInternal     = errors.New("internal error")

	errNilDependency = errors.New("nil dependency")
)

// Reason says why a login was refused.
type Reason string

const (
	UnknownIdentifier Reason = "unknown_identifier"
	BadPassword       Reason = "bad_password"
)

// ValidationError reports malformed register or login input.
// Msg is safe to show to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("credential: invalid %s: %s", e.Field, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a taken username or email.
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return "credential: " + ErrConflict.Error()
	}
	return fmt.Sprintf("credential: %s already taken", e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// UnauthorizedError reports a refused login.
type UnauthorizedError struct {
	Reason Reason
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("credential: unauthorized: %s", e.Reason)
}

func (e UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// NotFoundError reports that a principal's account no longer exists.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("credential: account %q not found", e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// InternalError wraps a store, hashing or signing failure. Its text is for
// logs only.
type InternalError struct {
	Op  string
	Err error
}

func (e InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is lets errors.Is match both ErrInternal and the wrapped cause.
func (e InternalError) Is(target error) bool { return target == ErrInternal }

func (e InternalError) Unwrap() error { return e.Err }

// UnauthorizedReason extracts the login failure reason from err.
func UnauthorizedReason(err error) (Reason, bool) {
	var ue UnauthorizedError
	if !errors.As(err, &ue) {
		return "", false
	}
	return ue.Reason, true
}
