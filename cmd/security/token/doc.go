// Package token issues and verifies signed, expiring identity tokens.
//
// Tokens are compact HS256 JWTs (header.payload.signature, base64url), so any
// conforming JWT verifier holding the same secret can check them. The signing
// secret is loaded once at startup and never changes for the life of the
// process; replacing it invalidates every token issued before.
//
// Verify checks the signature before it looks at expiry or any claim.
package token
