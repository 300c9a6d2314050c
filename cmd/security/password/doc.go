// Package password provides password hashing and verification.
//
// Hashes are Argon2id in a PHC-like self-describing string, so the salt and
// cost parameters travel with the hash and can be raised without breaking
// hashes produced earlier. Bcrypt hashes are accepted by Verify only.
//
// The package also carries the password policy (length bounds, a minimal
// weak-pattern check) and Pool, which bounds how many hashes run at once.
//
// Hash strings are treated as untrusted input during Verify: parameters far
// above the configured ones are refused, and every decoding failure is
// reported as a mismatch.
package password
