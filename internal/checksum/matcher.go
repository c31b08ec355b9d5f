// Package checksum fingerprints uploaded workbooks so runs can be tied
// back to the exact file that produced them.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Hash returns the hex-encoded SHA-256 of the workbook bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matcher verifies workbook bytes against a known fingerprint, e.g. when
// re-fetching an archived original.
type Matcher struct {
	expected string
}

func NewMatcher(expected string) *Matcher {
	return &Matcher{expected: expected}
}

// Match reports whether the data hashes to the expected fingerprint.
func (m *Matcher) Match(data []byte) (bool, error) {
	if m.expected == "" {
		return false, errors.New("expected checksum is not set")
	}
	return Hash(data) == m.expected, nil
}
