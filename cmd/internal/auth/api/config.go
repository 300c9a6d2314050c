package authapi

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior.
type Config struct {
	// RoutePrefix is prepended to /register, /login and /me. Empty or a
	// path such as "/api/auth".
	RoutePrefix  string
	MaxBodyBytes int64
	TrustProxy   bool

	// ExposeLoginFailureReason tells callers whether the identifier or the
	// password was wrong. Off by default; it reveals which accounts exist.
	ExposeLoginFailureReason bool
}

// LoadConfigFromEnv loads auth config from environment variables with safe
// defaults. A value that is set but does not parse is an error.
func LoadConfigFromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		RoutePrefix:              normalizePrefix(os.Getenv("STIBO_AUTH_ROUTE_PREFIX")),
		MaxBodyBytes:             envInt64(&errs, "STIBO_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		TrustProxy:               envBool(&errs, "STIBO_AUTH_TRUST_PROXY", false),
		ExposeLoginFailureReason: envBool(&errs, "STIBO_AUTH_EXPOSE_LOGIN_FAILURE_REASON", false),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalizePrefix turns "api/auth/" into "/api/auth" and "/" into "".
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func envBool(errs *[]error, key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("auth config: %s=%q is not a boolean", key, v))
		return def
	}
	return b
}

func envInt64(errs *[]error, key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("auth config: %s=%q is not a positive integer", key, v))
		return def
	}
	return n
}
