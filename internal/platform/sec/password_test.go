// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// fastParams keeps argon2 cheap enough for the test suite while staying
// structurally identical to production parameters.
func fastParams() sec.HashParams {
	return sec.HashParams{
		TimeCost:    1,
		MemoryKiB:   8 * 1024,
		Parallelism: 1,
		SaltLen:     16,
		KeyLen:      32,
	}
}

/*
TestPasswordHasher_RoundTrip verifies hash-then-verify with the same and a
different password.
*/
func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastParams())

	encoded, err := hasher.Hash("Str0ng!Passw0rd!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	match, needsRehash, err := hasher.Verify(encoded, "Str0ng!Passw0rd!")
	require.NoError(t, err)
	assert.True(t, match)
	assert.False(t, needsRehash)

	match, _, err = hasher.Verify(encoded, "wrong-password")
	require.NoError(t, err)
	assert.False(t, match)
}

/*
TestPasswordHasher_SaltUniqueness checks that identical passwords never
produce identical digests.
*/
func TestPasswordHasher_SaltUniqueness(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastParams())

	first, err := hasher.Hash("Str0ng!Passw0rd!")
	require.NoError(t, err)
	second, err := hasher.Hash("Str0ng!Passw0rd!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestPasswordHasher_NeedsRehash verifies the upgrade signal when stored
parameters are weaker than current policy.
*/
func TestPasswordHasher_NeedsRehash(t *testing.T) {
	weak := sec.NewPasswordHasher(fastParams())
	encoded, err := weak.Hash("Str0ng!Passw0rd!")
	require.NoError(t, err)

	stronger := fastParams()
	stronger.TimeCost = 2
	current := sec.NewPasswordHasher(stronger)

	match, needsRehash, err := current.Verify(encoded, "Str0ng!Passw0rd!")
	require.NoError(t, err)
	assert.True(t, match)
	assert.True(t, needsRehash)
}

/*
TestPasswordHasher_CorruptHash ensures unparsable stored values surface as
STORED_HASH_CORRUPT, not as a mismatch.
*/
func TestPasswordHasher_CorruptHash(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastParams())

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"bcrypt_prefix", "$2a$10$abcdefghijklmnopqrstuv"},
		{"truncated", "$argon2id$v=19$m=8192,t=1,p=1"},
		{"bad_base64", "$argon2id$v=19$m=8192,t=1,p=1$!!!$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := hasher.Verify(tt.encoded, "any")
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, "STORED_HASH_CORRUPT"))
		})
	}
}

/*
TestCheckPasswordPolicy exercises every rule with the first failing rule
reported.
*/
func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
		wantRule string
	}{
		{"valid", "Str0ng!Passw0rd!", true, ""},
		{"too_short", "Sh0rt!pw", false, "12 characters"},
		{"no_upper", "l0ng!passw0rd!!", false, "uppercase"},
		{"no_lower", "L0NG!PASSW0RD!!", false, "lowercase"},
		{"no_digit", "Long!Password!!", false, "digit"},
		{"no_special", "L0ngPassw0rd123", false, "special"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sec.CheckPasswordPolicy(tt.password)

			if tt.wantOK {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "WEAK_PASSWORD", ae.Code)
			assert.Contains(t, ae.Message, tt.wantRule)
		})
	}
}
