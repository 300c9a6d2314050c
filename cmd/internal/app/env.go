package app

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed env vars. An unset or blank variable yields the
// default; a value that does not parse is recorded and reported by Err.
type envReader struct {
	errs []error
}

func (e *envReader) fail(key, v, want string) {
	e.errs = append(e.errs, fmt.Errorf("config: %s=%q is not %s", key, v, want))
}

// Err returns every parse failure seen so far, or nil.
func (e *envReader) Err() error {
	return errors.Join(e.errs...)
}

// String reads a string env var with a default.
func (e *envReader) String(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// Bool reads a bool env var with a default.
func (e *envReader) Bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "a boolean (true/false/1/0)")
		return def
	}
	return b
}

// Int reads a non-negative int env var with a default.
func (e *envReader) Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.fail(key, v, "a non-negative integer")
		return def
	}
	return n
}

// Int32 reads a non-negative int32 env var with a default.
func (e *envReader) Int32(key string, def int32) int32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 || n > math.MaxInt32 {
		e.fail(key, v, "a non-negative 32-bit integer")
		return def
	}
	return int32(n)
}

// Duration reads a positive duration env var ("15s", "2m") with a default.
func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(key, v, "a positive duration with a unit (e.g. 15s)")
		return def
	}
	return d
}

// List reads a comma-separated env var. Blank items are dropped.
func (e *envReader) List(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
