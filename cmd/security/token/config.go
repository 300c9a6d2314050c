package token

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretEnvKey is the env var holding the HMAC signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "STIBO_JWT_SECRET"

	DefaultTTL    = 24 * time.Hour
	DefaultIssuer = "stibo-auth"
)

// Config is the process-wide token configuration.
type Config struct {
	Secret     []byte
	Issuer     string
	DefaultTTL time.Duration
}

// LoadConfigFromEnv reads the token configuration.
//
// Required:
//   - STIBO_JWT_SECRET
//
// Optional:
//   - STIBO_JWT_TTL (Go duration or whole days such as "1d", default 24h)
//   - STIBO_JWT_ISSUER (default "stibo-auth")
func LoadConfigFromEnv() (Config, error) {
	secret, err := SecretFromEnv(0)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Secret:     secret,
		Issuer:     DefaultIssuer,
		DefaultTTL: DefaultTTL,
	}

	if v := strings.TrimSpace(os.Getenv("STIBO_JWT_ISSUER")); v != "" {
		cfg.Issuer = v
	}
	if v := strings.TrimSpace(os.Getenv("STIBO_JWT_TTL")); v != "" {
		d, err := ParseTTL(v)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultTTL = d
	}

	return cfg, nil
}

// SecretFromEnv returns the signing secret bytes (trimmed), enforcing a
// minimum byte length when minBytes > 0.
func SecretFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// ParseTTL parses a positive Go duration, also accepting whole days ("7d").
func ParseTTL(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, ErrConfig
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, ErrConfig
	}
	return d, nil
}
