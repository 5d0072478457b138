package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA512 digest of canonical over secret.
// The secret comes from injected config and must never appear in logs or
// response bodies.
func Sign(secret string, canonical []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether presented is the valid digest for canonical.
// Comparison is constant-time; a plain string equality would leak the
// matching prefix length through timing.
func Verify(secret string, canonical []byte, presented string) bool {
	presentedRaw, err := hex.DecodeString(presented)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hmac.Equal(mac.Sum(nil), presentedRaw)
}
