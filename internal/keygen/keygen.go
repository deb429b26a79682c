// Package keygen produces collision-resistant, human-transcribable license
// keys in the form UPAGER-XXXX-XXXX-XXXX-XXXX.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Prefix is the product prefix carried by every key.
const Prefix = "UPAGER"

const randomBytes = 8 // 16 hex digits, 4 groups of 4

// Generate returns a new key. Uniqueness is enforced by the licenses table;
// on a duplicate-key insert the caller generates a fresh key and retries.
func Generate() (string, error) {
	raw := make([]byte, randomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	digits := strings.ToUpper(hex.EncodeToString(raw))
	parts := make([]string, 0, 1+len(digits)/4)
	parts = append(parts, Prefix)
	for i := 0; i < len(digits); i += 4 {
		parts = append(parts, digits[i:i+4])
	}
	return strings.Join(parts, "-"), nil
}

// Normalize trims whitespace and uppercases a key so lookups and stored
// rows agree on one canonical form.
func Normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
