// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
)

func HashString(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ShortHash returns the first 16 hex characters of the SHA-256 digest,
// compact enough for external listing identifiers.
func ShortHash(input string) string {
	return HashString(input)[:16]
}

// NumericHash gives a stable small fingerprint for deriving pseudo part
// numbers from listing URLs.
func NumericHash(input string) uint32 {
	hasher := fnv.New32a()
	hasher.Write([]byte(input))
	return hasher.Sum32()
}
