package domain

import (
	"crypto/rand"
	"math/big"
)

// DefaultOTPLength is the one-time code length used when none is configured.
const DefaultOTPLength = 6

// GenerateOneTimeCode returns a cryptographically random numeric code.
func GenerateOneTimeCode(length int) (string, error) {
	if length < 4 {
		length = DefaultOTPLength
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
