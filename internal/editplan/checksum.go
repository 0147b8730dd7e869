package editplan

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex-encoded SHA-256 of content, the hash used
// throughout the checksum table (spec.md §3, §4.H, §8 invariant 8).
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
