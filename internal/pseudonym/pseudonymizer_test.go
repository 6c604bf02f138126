package pseudonym

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/signatures/internal/errors"
)

func TestNewPseudonymizer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		p, err := NewPseudonymizer([]byte("0123456789abcdef"))
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("Error_KeyTooShort", func(t *testing.T) {
		_, err := NewPseudonymizer([]byte("short"))
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestPseudonymizer_Hash(t *testing.T) {
	p, err := NewPseudonymizer([]byte("0123456789abcdef"))
	require.NoError(t, err)

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, p.Hash("customer-1"), p.Hash("customer-1"))
	})

	t.Run("DifferentInputsDiffer", func(t *testing.T) {
		assert.NotEqual(t, p.Hash("customer-1"), p.Hash("customer-2"))
	})

	t.Run("DifferentKeysDiffer", func(t *testing.T) {
		other, err := NewPseudonymizer([]byte("fedcba9876543210"))
		require.NoError(t, err)
		assert.NotEqual(t, p.Hash("customer-1"), other.Hash("customer-1"))
	})

	t.Run("HexEncodedSHA256", func(t *testing.T) {
		assert.Len(t, p.Hash("customer-1"), 64)
	})
}

func TestNewPseudonymizerFromSecret(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		secret := base64.StdEncoding.EncodeToString([]byte("seed"))

		p, err := NewPseudonymizerFromSecret(secret)
		require.NoError(t, err)

		again, err := NewPseudonymizerFromSecret(secret)
		require.NoError(t, err)

		// The derived key is stable for the same seed.
		assert.Equal(t, p.Hash("customer-1"), again.Hash("customer-1"))
	})

	t.Run("Error_InvalidBase64", func(t *testing.T) {
		_, err := NewPseudonymizerFromSecret("not base64!!!")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("Error_EmptySecret", func(t *testing.T) {
		_, err := NewPseudonymizerFromSecret("")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}
