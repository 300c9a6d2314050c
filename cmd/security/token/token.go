package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity asserted by a token. It is a snapshot taken at
// issuance and does not follow later account changes.
type Claims struct {
	SubjectID string
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// payload is the JWT body: registered claims plus the identity snapshot.
type payload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 tokens with a single process-wide secret.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service from cfg. The secret is copied.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSecretMissing
	}

	s := &Service{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.DefaultTTL,
		now:    time.Now,
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	return s, nil
}

// DefaultTTL returns the lifetime used when Issue is given ttl <= 0.
func (s *Service) DefaultTTL() time.Duration { return s.ttl }

// Issue signs a token for c valid for ttl from now. ttl <= 0 selects the
// configured default. IssuedAt and ExpiresAt in c are ignored.
func (s *Service) Issue(c Claims, ttl time.Duration) (string, error) {
	if strings.TrimSpace(c.SubjectID) == "" {
		return "", ErrInvalidClaims
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	p := payload{
		Username: c.Username,
		Email:    c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   c.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, p).SignedString(s.secret)
}

// Verify checks raw and returns its claims.
//
// A token that does not split into three decodable segments fails with
// ErrMalformedToken. A signature that does not match, or any algorithm other
// than HS256, fails with ErrInvalidSignature. Only after the signature holds
// is expiry checked: now >= exp fails with ErrExpired. Anything else wrong
// with the claims (issuer, iat in the future, missing subject) is
// ErrInvalidClaims.
func (s *Service) Verify(raw string) (Claims, error) {
	var p payload
	if _, err := s.parser.ParseWithClaims(raw, &p, s.key); err != nil {
		return Claims{}, classify(err)
	}

	if strings.TrimSpace(p.Subject) == "" || p.IssuedAt == nil || p.ExpiresAt == nil {
		return Claims{}, ErrInvalidClaims
	}

	return Claims{
		SubjectID: p.Subject,
		Username:  p.Username,
		Email:     p.Email,
		IssuedAt:  p.IssuedAt.UTC(),
		ExpiresAt: p.ExpiresAt.UTC(),
	}, nil
}

func (s *Service) key(_ *jwt.Token) (any, error) {
	return s.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalidClaims
	}
}
