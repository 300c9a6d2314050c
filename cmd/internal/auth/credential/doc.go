// Package credential coordinates account registration, login and the
// current-account lookup on top of an identity.Store, a password hasher and
// a token issuer.
//
// Errors returned by Service are one of ValidationError, ConflictError,
// UnauthorizedError, NotFoundError or InternalError. Each unwraps to the
// matching sentinel so callers can use errors.Is.
package credential
