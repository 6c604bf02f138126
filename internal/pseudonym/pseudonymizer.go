// Package pseudonym provides deterministic one-way hashing of customer
// identifiers. The same input always maps to the same output so records can
// be matched, but the original identifier cannot be recovered.
package pseudonym

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/allisson/signatures/internal/errors"
)

// Pseudonymizer is the injected one-way hashing capability.
type Pseudonymizer interface {
	// Hash returns the deterministic pseudonym for an identifier.
	Hash(id string) string
}

// hmacPseudonymizer implements Pseudonymizer with HMAC-SHA256.
type hmacPseudonymizer struct {
	key []byte
}

// NewPseudonymizer creates a pseudonymizer from raw key material.
func NewPseudonymizer(key []byte) (Pseudonymizer, error) {
	if len(key) < 16 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "pseudonymization key too short")
	}
	return &hmacPseudonymizer{key: key}, nil
}

// NewPseudonymizerFromSecret derives the HMAC key from a base64 seed using
// HKDF, so a short configured secret still yields full-strength key material.
func NewPseudonymizerFromSecret(secret string) (Pseudonymizer, error) {
	seed, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "pseudonym secret is not valid base64")
	}
	if len(seed) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "pseudonym secret is empty")
	}

	reader := hkdf.New(sha256.New, seed, nil, []byte("signatures-pseudonym-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive pseudonymization key: %w", err)
	}

	return &hmacPseudonymizer{key: key}, nil
}

// Hash computes the HMAC-SHA256 pseudonym.
func (p *hmacPseudonymizer) Hash(id string) string {
	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
