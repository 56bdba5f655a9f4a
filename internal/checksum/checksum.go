// Package checksum fingerprints photo evidence content.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data. It is recorded on each
// evidence record at upload time and never recomputed for stored bytes.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag wraps a digest in the quoted form HTTP validators expect.
func ETag(sum string) string {
	return `"` + sum + `"`
}
