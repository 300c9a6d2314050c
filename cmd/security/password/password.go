package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)

	// bcrypt hashes above this cost are refused during Verify.
	maxBcryptCost = 14

	// Verify floors for the Argon2id cost ceilings. Hashes written by any
	// instance with default or cheaper settings stay verifiable no matter how
	// the verifying instance is configured.
	verifyMaxMemoryKiB   = 256 * 1024 // 256 MiB
	verifyMaxIterations  = 10
	verifyMaxParallelism = 16
)

// Hash hashes a password using Argon2id and returns an encoded hash string.
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Policy checks are not applied here; callers run Validate first.
func (c Config) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	b64 := base64.RawStdEncoding

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash.
//
// Argon2id hashes are recomputed with the parameters embedded in the hash.
// Bcrypt hashes ($2a$, $2b$, $2y$) carried over from older deployments are
// accepted as well. A malformed, unsupported or out-of-bounds hash never
// matches; the caller cannot tell it apart from a wrong password.
func (c Config) Verify(password, encodedHash string) bool {
	if isBcryptHash(encodedHash) {
		return verifyBcrypt(password, encodedHash)
	}

	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false
	}

	// Refuse attacker-sized parameters before doing any work.
	if !withinReasonableBounds(params, c.Params) {
		return false
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- bounded by withinReasonableBounds.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

func verifyBcrypt(password, encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil || cost > maxBcryptCost {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Older/smaller settings stay verifiable; wildly larger ones do not.
	if uint64(got.MemoryKiB) > verifyCeiling(limits.MemoryKiB, verifyMaxMemoryKiB) {
		return false
	}
	if uint64(got.Iterations) > verifyCeiling(limits.Iterations, verifyMaxIterations) {
		return false
	}
	if uint64(got.Parallelism) > verifyCeiling(uint32(limits.Parallelism), verifyMaxParallelism) {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// verifyCeiling is twice the configured cost, but never below floor.
// Computed in uint64 so the doubling cannot wrap.
func verifyCeiling(configured uint32, floor uint64) uint64 {
	return max(uint64(configured)*2, floor)
}

// decode parses the encoded hash and returns params, salt and expected key.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),        // #nosec G115 -- checked <= 255 above.
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by the encoded string length.
		KeyLength:   uint32(len(hash)), // #nosec G115 -- bounded by the encoded string length.
	}

	return params, salt, hash, nil
}
