// Package checksum provides the content digests the worklog chain is built
// on. Every persisted entry is addressed by these digests: the full sum links
// an entry to its predecessor, the short sum is embedded in the filename.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is the number of hex characters of a digest embedded in entry
// filenames.
const ShortLen = 8

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ShortSum returns the first ShortLen hex characters of Sum(data).
func ShortSum(data []byte) string {
	return Sum(data)[:ShortLen]
}
