package token

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv(SecretEnvKey, "  ")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(SecretEnvKey, "dev-secret")
	t.Setenv("STIBO_JWT_TTL", "")
	t.Setenv("STIBO_JWT_ISSUER", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if string(cfg.Secret) != "dev-secret" || cfg.Issuer != DefaultIssuer || cfg.DefaultTTL != DefaultTTL {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv(SecretEnvKey, "dev-secret")
	t.Setenv("STIBO_JWT_TTL", "90m")
	t.Setenv("STIBO_JWT_ISSUER", "auth.example.com")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.DefaultTTL != 90*time.Minute || cfg.Issuer != "auth.example.com" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_InvalidTTL(t *testing.T) {
	for _, v := range []string{"-5m", "0s", "0d", "xd", "soon"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(SecretEnvKey, "dev-secret")
			t.Setenv("STIBO_JWT_TTL", v)
			if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestSecretFromEnv_MinBytes(t *testing.T) {
	t.Setenv(SecretEnvKey, "short")

	if _, err := SecretFromEnv(32); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
	if b, err := SecretFromEnv(0); err != nil || string(b) != "short" {
		t.Fatalf("SecretFromEnv(0)=(%q, %v)", b, err)
	}
}

func TestParseTTL(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		"1d":  24 * time.Hour,
		"7d":  7 * 24 * time.Hour,
		"15m": 15 * time.Minute,
		"2h":  2 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseTTL(in)
		if err != nil || got != want {
			t.Fatalf("ParseTTL(%q)=(%v, %v) want %v", in, got, err, want)
		}
	}
}
