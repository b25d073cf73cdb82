package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the cache key of an entry: the hex SHA-256 of its title.
// Entries sharing a title share a fingerprint.
func Fingerprint(title string) string {
	sum := sha256.Sum256([]byte(title))
	return hex.EncodeToString(sum[:])
}
