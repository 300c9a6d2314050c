package identity

import "strings"

// NormalizeUsername performs case-insensitive canonicalization.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeIdentifier canonicalizes a login identifier that may be either a
// username or an email. Both normalizations agree, so one key serves both
// lookups.
func NormalizeIdentifier(s string) string {
	return NormalizeEmail(s)
}
