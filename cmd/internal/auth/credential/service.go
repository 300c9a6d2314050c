package credential

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
	"github.com/Jfafa/Stibo-auth/cmd/security/password"
	"github.com/Jfafa/Stibo-auth/cmd/security/token"
)

// Hasher is the password hashing dependency. *password.Pool satisfies it.
type Hasher interface {
	Validate(password string) error
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encodedHash string) (bool, error)
}

// Issuer signs tokens. *token.Service satisfies it.
type Issuer interface {
	Issue(c token.Claims, ttl time.Duration) (string, error)
}

// User is the caller-facing view of an account. It has no password field.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Result is returned by Register and Login.
type Result struct {
	User  User
	Token string
}

// RegisterInput is the plaintext registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Service implements Register, Login and WhoAmI.
type Service struct {
	store  identity.Store
	hasher Hasher
	tokens Issuer
	ttl    time.Duration
	now    func() time.Time

	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL sets the lifetime of issued tokens. Zero keeps the issuer's
// default.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source used for account timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a Service. It spends one hash up front to build the dummy
// hash used for unknown-identifier logins.
func NewService(store identity.Store, hasher Hasher, tokens Issuer, opts ...Option) (*Service, error) {
	if store == nil || hasher == nil || tokens == nil {
		return nil, InternalError{Op: "credential.NewService", Err: errNilDependency}
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	hash, err := hasher.Hash(context.Background(), "dummy-password-for-timing-only")
	if err != nil {
		return nil, InternalError{Op: "credential.NewService", Err: err}
	}
	s.dummyHash = hash

	return s, nil
}

// Register creates an account and returns it with a fresh token.
//
// The password is hashed before the store is touched. A taken username or
// email surfaces as ConflictError and no token is issued.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	const op = "credential.Register"

	username, err := validateUsername(in.Username)
	if err != nil {
		return Result{}, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return Result{}, err
	}
	if err := s.hasher.Validate(in.Password); err != nil {
		return Result{}, ValidationError{Field: "password", Msg: passwordMessage(err)}
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Result{}, InternalError{Op: op, Err: err}
	}

	acct, err := s.store.Create(ctx, identity.CreateAccountInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          s.now(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			field, _ := identity.ConflictField(err)
			return Result{}, ConflictError{Field: field}
		case identity.IsInvalidInput(err):
			return Result{}, ValidationError{Field: "account", Msg: "invalid account data"}
		default:
			return Result{}, InternalError{Op: op, Err: err}
		}
	}

	return s.issue(op, acct)
}

// Login authenticates identifier (a username or an email) and password.
//
// A missing account still costs one password verification so response time
// does not reveal whether the identifier exists.
func (s *Service) Login(ctx context.Context, identifier, plaintext string) (Result, error) {
	const op = "credential.Login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Result{}, ValidationError{Field: "username", Msg: "username or email is required"}
	}
	if plaintext == "" {
		return Result{}, ValidationError{Field: "password", Msg: "password is required"}
	}

	acct, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if identity.IsNotFound(err) {
			_, _ = s.hasher.Verify(ctx, plaintext, s.dummyHash)
			return Result{}, UnauthorizedError{Reason: UnknownIdentifier}
		}
		return Result{}, InternalError{Op: op, Err: err}
	}

	ok, err := s.hasher.Verify(ctx, plaintext, acct.PasswordHash)
	if err != nil {
		return Result{}, InternalError{Op: op, Err: err}
	}
	if !ok {
		return Result{}, UnauthorizedError{Reason: BadPassword}
	}

	return s.issue(op, acct)
}

// WhoAmI re-reads the principal's account so the caller sees current data.
// An account deleted since the token was issued yields NotFoundError.
func (s *Service) WhoAmI(ctx context.Context, p identity.Principal) (User, error) {
	const op = "credential.WhoAmI"

	acct, err := s.store.FindByID(ctx, p.SubjectID)
	if err != nil {
		if identity.IsNotFound(err) {
			return User{}, NotFoundError{ID: p.SubjectID}
		}
		return User{}, InternalError{Op: op, Err: err}
	}
	return toUser(acct), nil
}

func (s *Service) issue(op string, acct identity.Account) (Result, error) {
	tok, err := s.tokens.Issue(token.Claims{
		SubjectID: acct.ID,
		Username:  acct.Username,
		Email:     acct.Email,
	}, s.ttl)
	if err != nil {
		return Result{}, InternalError{Op: op, Err: err}
	}
	return Result{User: toUser(acct), Token: tok}, nil
}

func toUser(a identity.Account) User {
	return User{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func passwordMessage(err error) string {
	switch {
	case errors.Is(err, password.ErrEmptyPassword):
		return "password is required"
	case errors.Is(err, password.ErrPasswordTooShort):
		return "password is too short"
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password is too long"
	case errors.Is(err, password.ErrWeakPassword):
		return "password is too weak"
	default:
		return "password is not acceptable"
	}
}
