// Package gate decides whether a request carries a valid bearer token and,
// if so, attaches the verified principal to its context.
package gate

import (
	"net/http"
	"strings"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
	"github.com/Jfafa/Stibo-auth/cmd/security/token"
)

// Reason is why a request was rejected.
type Reason string

const (
	MissingToken     Reason = "missing_token"
	MalformedHeader  Reason = "malformed_header"
	InvalidOrExpired Reason = "invalid_or_expired"
)

// Decision is the outcome of Decide. Reason is empty when Authorized.
type Decision struct {
	Authorized bool
	Principal  identity.Principal
	Reason     Reason
}

// VerifyFunc checks a raw token. (*token.Service).Verify satisfies it.
type VerifyFunc func(raw string) (token.Claims, error)

// RejectFunc writes the response for a rejected request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, reason Reason)

// Gate enforces bearer authentication.
type Gate struct {
	verify VerifyFunc
	reject RejectFunc
}

// Option configures a Gate.
type Option func(*Gate)

// WithRejectHandler overrides the default plain 401 response.
func WithRejectHandler(fn RejectFunc) Option {
	return func(g *Gate) {
		if fn != nil {
			g.reject = fn
		}
	}
}

// New returns a Gate that verifies tokens with verify.
func New(verify VerifyFunc, opts ...Option) *Gate {
	g := &Gate{verify: verify, reject: defaultReject}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

const scheme = "Bearer"

// Decide inspects the Authorization header of r.
//
// The header must be exactly "Bearer <token>": one space, case-sensitive
// scheme, a single non-empty token. Every verification failure collapses to
// InvalidOrExpired.
func (g *Gate) Decide(r *http.Request) Decision {
	raw, present := r.Header["Authorization"]
	if !present || len(raw) == 0 || raw[0] == "" {
		return Decision{Reason: MissingToken}
	}
	if len(raw) > 1 {
		return Decision{Reason: MalformedHeader}
	}

	tok, ok := parseBearer(raw[0])
	if !ok {
		return Decision{Reason: MalformedHeader}
	}

	claims, err := g.verify(tok)
	if err != nil {
		return Decision{Reason: InvalidOrExpired}
	}

	return Decision{
		Authorized: true,
		Principal: identity.Principal{
			SubjectID: claims.SubjectID,
			Username:  claims.Username,
			Email:     claims.Email,
		},
	}
}

// Require wraps next so it only runs for authorized requests. The principal
// is available to next through identity.PrincipalFromContext.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r)
		if !d.Authorized {
			g.reject(w, r, d.Reason)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), d.Principal)))
	})
}

func parseBearer(h string) (string, bool) {
	prefix, tok, found := strings.Cut(h, " ")
	if !found || prefix != scheme {
		return "", false
	}
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

func defaultReject(w http.ResponseWriter, _ *http.Request, _ Reason) {
	w.Header().Set("WWW-Authenticate", scheme)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
