// Copyright (c) 2026 Vacaplan. All rights reserved.

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// # Opaque Tokens (refresh, invite, password reset)

// opaqueTokenBytes is the entropy of a generated opaque token (256 bits).
const opaqueTokenBytes = 32

// NewOpaqueToken generates a URL-safe opaque token and its storage hash.
//
// The raw token is returned to the client exactly once; only the SHA-256
// hex digest is ever persisted, so a database leak exposes no usable tokens.
func NewOpaqueToken() (raw string, hash string, err error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("sec: failed to generate token: %w", err)
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashOpaqueToken(raw), nil
}

// HashOpaqueToken derives the storage hash for a presented raw token.
// Lookup by hash makes token comparison constant-time by construction.
func HashOpaqueToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
