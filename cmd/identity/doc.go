// Package identity holds the account record and the credential store boundary.
//
// Account creation is the single uniqueness gate for username and email:
// every Store implementation rejects a duplicate atomically inside Create and
// reports it as a ConflictError, so callers never check-then-insert.
//
// Three stores are provided: MemoryStore for development and tests,
// PostgresStore (pgx, goose migrations under migrations/) and RedisStore.
package identity
