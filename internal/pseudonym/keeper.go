package pseudonym

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/allisson/signatures/internal/errors"

	// Register KMS provider drivers for keeper URIs.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// NewPseudonymizerFromKeeper unwraps the pseudonymization key through a
// gocloud.dev secrets keeper (gcpkms://, awskms://, azurekeyvault://,
// hashivault://, base64key://) and builds the pseudonymizer from the
// decrypted key material.
func NewPseudonymizerFromKeeper(
	ctx context.Context,
	keyURI string,
	wrappedKey string,
) (Pseudonymizer, error) {
	if keyURI == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "pseudonym key URI is empty")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrappedKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "wrapped pseudonym key is not valid base64")
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close() //nolint:errcheck

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap pseudonymization key: %w", err)
	}

	return NewPseudonymizer(key)
}
