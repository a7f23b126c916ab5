// Package digest computes content digests of intermediate plans. Two plans
// that differ only in element ids, source positions or literal spelling
// share a digest.
package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/plexc/plan"
)

// Sum computes the SHA-256 digest of el's normalized serialization.
func Sum(el *plan.Element) [32]byte {
	return sha256.Sum256(Serialize(Normalize(el)))
}

// Hex returns Sum as a lowercase hex string.
func Hex(el *plan.Element) string {
	h := Sum(el)
	return hex.EncodeToString(h[:])
}
