// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
)

// # Password Hashing (argon2id)

// HashParams are the argon2id cost parameters. Weaker stored parameters
// trigger a rehash on the next successful verification.
type HashParams struct {
	TimeCost    uint32
	MemoryKiB   uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultHashParams targets 200-500 ms per hash on reference hardware.
func DefaultHashParams() HashParams {
	return HashParams{
		TimeCost:    2,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// PasswordHasher hashes and verifies passwords using argon2id.
//
// # Concurrency
//
// PasswordHasher is immutable after construction and safe for concurrent use.
// Hashing is CPU-bound for several hundred milliseconds; callers must not
// hold row locks across a Hash or Verify call.
type PasswordHasher struct {
	params HashParams
}

// NewPasswordHasher creates a hasher with the given cost parameters.
// Zero-valued fields fall back to [DefaultHashParams].
func NewPasswordHasher(params HashParams) *PasswordHasher {
	defaults := DefaultHashParams()
	if params.TimeCost == 0 {
		params.TimeCost = defaults.TimeCost
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = defaults.MemoryKiB
	}
	if params.Parallelism == 0 {
		params.Parallelism = defaults.Parallelism
	}
	if params.SaltLen == 0 {
		params.SaltLen = defaults.SaltLen
	}
	if params.KeyLen == 0 {
		params.KeyLen = defaults.KeyLen
	}
	return &PasswordHasher{params: params}
}

// Hash derives an argon2id digest and returns it in PHC string format:
//
//	$argon2id$v=19$m=65536,t=2,p=4$<salt>$<key>
func (hasher *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, hasher.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		hasher.params.TimeCost,
		hasher.params.MemoryKiB,
		hasher.params.Parallelism,
		hasher.params.KeyLen,
	)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hasher.params.MemoryKiB,
		hasher.params.TimeCost,
		hasher.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify compares a plain-text password against a stored PHC string.
//
// It returns (match, needsRehash, error). needsRehash is set when the stored
// parameters are weaker than the hasher's current parameters; callers must
// re-persist the hash on the next successful login. An unparsable stored
// value returns a STORED_HASH_CORRUPT error, never a mismatch.
func (hasher *PasswordHasher) Verify(encoded, password string) (bool, bool, error) {
	stored, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, false, apperr.StoredHashCorrupt(err)
	}

	candidate := argon2.IDKey(
		[]byte(password),
		salt,
		stored.TimeCost,
		stored.MemoryKiB,
		stored.Parallelism,
		uint32(len(key)),
	)

	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, false, nil
	}

	needsRehash := stored.TimeCost < hasher.params.TimeCost ||
		stored.MemoryKiB < hasher.params.MemoryKiB ||
		uint32(len(key)) < hasher.params.KeyLen

	return true, needsRehash, nil
}

// DummyVerify burns the same CPU cost as a real verification.
// Called when login hits an unknown email so response timing does not
// reveal account existence.
func (hasher *PasswordHasher) DummyVerify() {
	salt := make([]byte, hasher.params.SaltLen)
	argon2.IDKey(
		[]byte("dummy-password-for-timing"),
		salt,
		hasher.params.TimeCost,
		hasher.params.MemoryKiB,
		hasher.params.Parallelism,
		hasher.params.KeyLen,
	)
}

// decodePHC parses a $argon2id$ PHC string into its parameters, salt, and key.
func decodePHC(encoded string) (HashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return HashParams{}, nil, nil, fmt.Errorf("sec: not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("sec: malformed version segment: %w", err)
	}
	if version != argon2.Version {
		return HashParams{}, nil, nil, fmt.Errorf("sec: unsupported argon2 version %d", version)
	}

	var params HashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.MemoryKiB, &params.TimeCost, &params.Parallelism); err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("sec: malformed parameter segment: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("sec: malformed salt: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("sec: malformed key: %w", err)
	}

	return params, salt, key, nil
}

// # Password Policy

// passwordSpecials is the accepted special-character set for new passwords.
const passwordSpecials = `!@#$%^&*()-_=+[]{};:,.<>?`

// CheckPasswordPolicy validates a candidate password at set/change time.
// It returns a WEAK_PASSWORD error naming the first failing rule, or nil.
// Verification of existing passwords never applies the policy.
func CheckPasswordPolicy(password string) error {
	if len(password) < 12 {
		return apperr.WeakPassword("Password must be at least 12 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return apperr.WeakPassword("Password must contain an uppercase letter")
	case !hasLower:
		return apperr.WeakPassword("Password must contain a lowercase letter")
	case !hasDigit:
		return apperr.WeakPassword("Password must contain a digit")
	case !hasSpecial:
		return apperr.WeakPassword("Password must contain a special character")
	}

	return nil
}
