// Package hasher derives the stored consent hash from the client identifier.
// The transform is keyed: without the server secret, possession of a client
// identifier proves nothing about any stored row.
package hasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	dErrors "libreconsent/pkg/domain-errors"
)

// Hasher computes HMAC-SHA256 over consent identifiers with the server
// secret as key.
type Hasher struct {
	key []byte
}

// New builds a Hasher. An empty secret is a hard configuration error: records
// must never be written with an unkeyed or guessable transform.
func New(secret string) (*Hasher, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeConfig, "consent hashing secret is not provisioned")
	}
	return &Hasher{key: []byte(secret)}, nil
}

// Hash returns the hex-encoded keyed hash of a consent identifier. The output
// is deterministic per (secret, id) so repeated submissions from the same
// browser collapse to one identity in the audit trail.
func (h *Hasher) Hash(consentID string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(consentID))
	return hex.EncodeToString(mac.Sum(nil))
}
