package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex sha256 of the raw document bytes. Uploads
// carrying the same fingerprint converge on the same document record.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
