// Package checksum fingerprints the raw bytes of pile's data files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Changed reports whether data no longer hashes to prev.
func Changed(prev string, data []byte) bool {
	return prev == "" || Sum(data) != prev
}
