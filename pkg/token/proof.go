package token

import (
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. The proof only has to be one-way, not resist
// offline guessing, so memory and time stay small.
const (
	proofTime    = 1
	proofMemory  = 8 * 1024
	proofThreads = 1
	proofKeyLen  = 16
)

// Proof returns the base64url Argon2id digest of secret salted with the
// salts joined by ':'.
func Proof(secret string, salts ...string) string {
	salt := []byte(strings.Join(salts, ":"))
	key := argon2.IDKey([]byte(secret), salt, proofTime, proofMemory, proofThreads, proofKeyLen)
	return base64.RawURLEncoding.EncodeToString(key)
}
