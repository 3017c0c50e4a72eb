package envelope

import (
	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// SecretShare is one half of a two-of-two XOR split. The split is a
// one-time pad, not a threshold scheme: EVERY share is required for
// reconstruction, and either share alone carries no information about
// the secret. Do not generalize this into an m-of-n scheme.
type SecretShare struct {
	// Index is 1 or 2. Reconstruction requires one share of each index.
	Index int

	// Bytes is the share material, same length as the split secret.
	Bytes []byte
}

// Zeroize wipes the share material.
func (s *SecretShare) Zeroize() {
	if s != nil {
		ctops.Zeroize(s.Bytes)
	}
}

// SplitSecret splits a secret into two shares: share 1 is uniformly
// random, share 2 is the secret XOR share 1.
func SplitSecret(secret []byte) (*SecretShare, *SecretShare, error) {
	if len(secret) == 0 {
		return nil, nil, qerrors.NewCryptoError("envelope.split", qerrors.ErrInvalidKeySize)
	}

	pad, err := ctops.SecureRandomBytes(len(secret))
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("envelope.split", err)
	}
	masked, err := ctops.Xor(secret, pad)
	if err != nil {
		ctops.Zeroize(pad)
		return nil, nil, qerrors.NewCryptoError("envelope.split", err)
	}

	return &SecretShare{Index: 1, Bytes: pad}, &SecretShare{Index: 2, Bytes: masked}, nil
}

// ReconstructSecret recombines both shares of a split. A missing or
// empty share fails with ShareMissing; there is no partial recovery.
func ReconstructSecret(share1, share2 *SecretShare) ([]byte, error) {
	if share1 == nil || share2 == nil || len(share1.Bytes) == 0 || len(share2.Bytes) == 0 {
		return nil, qerrors.NewCryptoError("envelope.reconstruct", qerrors.ErrShareMissing)
	}

	secret, err := ctops.Xor(share1.Bytes, share2.Bytes)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.reconstruct", err)
	}
	return secret, nil
}

// newContentKey draws a fresh 32-byte content key.
func newContentKey() ([]byte, error) {
	key, err := ctops.SecureRandomBytes(constants.SymmetricKeySize)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.contentkey", err)
	}
	return key, nil
}
