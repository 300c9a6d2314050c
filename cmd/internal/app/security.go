package app

import (
	"errors"
	"fmt"

	"github.com/Jfafa/Stibo-auth/cmd/security/token"
)

// minStrongSecretBytes is the HMAC-SHA256 key size.
const minStrongSecretBytes = 32

// ValidateSecurityConfig enforces the token secret policy at startup.
//
// The secret is always required. With RequireStrongSecret it must also be at
// least 32 bytes; length is measured in bytes because the key is used raw.
func ValidateSecurityConfig(cfg Config) error {
	minBytes := 0
	if cfg.RequireStrongSecret {
		minBytes = minStrongSecretBytes
	}

	if _, err := token.SecretFromEnv(minBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return fmt.Errorf("security policy: %s is required", token.SecretEnvKey)
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: STIBO_REQUIRE_STRONG_SECRET=true but %s is shorter than %d bytes", token.SecretEnvKey, minStrongSecretBytes)
		default:
			return err
		}
	}
	return nil
}
