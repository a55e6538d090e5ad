// Package fingerprint derives the content identity used as the corpus
// deduplication key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of returns the hex SHA-256 digest of the UTF-8 bytes of text.
func Of(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
