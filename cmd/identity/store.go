package identity

import (
	"context"
	"strings"
	"time"
)

// Account is a persisted identity record.
//
// PasswordHash is opaque and stays between the store and the password
// hasher; response types must never embed Account directly.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAccountInput describes a new account. The password is already hashed.
type CreateAccountInput struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the credential persistence boundary.
type Store interface {
	// FindByIdentifier matches identifier against username OR email,
	// case-insensitively. Missing accounts yield a NotFoundError.
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)

	// FindByID returns the account with the given id or a NotFoundError.
	FindByID(ctx context.Context, id string) (Account, error)

	// Create assigns an id and timestamps and inserts the account. A taken
	// username or email is rejected atomically with a ConflictError.
	Create(ctx context.Context, in CreateAccountInput) (Account, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

func validateCreate(op string, in CreateAccountInput) (CreateAccountInput, error) {
	out := in
	out.Username = strings.TrimSpace(in.Username)
	out.Email = strings.TrimSpace(in.Email)

	switch {
	case out.Username == "":
		return CreateAccountInput{}, invalid(op, "username is required")
	case out.Email == "":
		return CreateAccountInput{}, invalid(op, "email is required")
	case in.PasswordHash == "":
		return CreateAccountInput{}, invalid(op, "password hash is required")
	}

	if out.Now.IsZero() {
		out.Now = time.Now().UTC()
	}
	return out, nil
}
