package token

import (
	"crypto/sha256"
	"encoding/base64"
)

// Derive returns base64url(SHA-256(parts)) with a zero byte between parts,
// so ("ab", "c") and ("a", "bc") differ.
func Derive(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
