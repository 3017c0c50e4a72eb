// simulated.go implements the stand-in KEM.
//
// SECURITY WARNING: this implementation is NOT cryptographically sound.
// The wrap key is derived from a public SHAKE-256 hash of the public-key
// bytes, so anyone holding the public key can recover the shared secret
// from the ciphertext. It exists to exercise the interface contract —
// exact sizes, round-trip behavior, key-mismatch detection, and the
// indistinguishable-failure property — until a certified lattice-based
// KEM (see MLKEM in this package) is deployed behind the same interface.

package kem

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// Ciphertext layout for the simulated KEM. The wrapped secret occupies the
// first 32 bytes; the remainder is random filler bringing the ciphertext
// to the exact ML-KEM-768 size.
const (
	simWrappedSecretLen = constants.KEMSharedSecretSize
	simFillerLen        = constants.KEMCiphertextSize - simWrappedSecretLen
)

// Simulated is the stand-in KEM implementation.
type Simulated struct{}

// NewSimulated returns the stand-in KEM. See the security warning at the
// top of this file.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Name implements KEM.
func (s *Simulated) Name() string { return "simulated" }

// GenerateKeyPair implements KEM. Both halves embed the same random
// 16-byte identifier at offset zero; the rest of each key is random.
func (s *Simulated) GenerateKeyPair() (*KeyPair, error) {
	id, err := ctops.HardenedRandom(constants.KeyIDSize)
	if err != nil {
		return nil, qerrors.NewCryptoError("kem.Simulated.GenerateKeyPair", err)
	}

	pubBytes := make([]byte, constants.KEMPublicKeySize)
	privBytes := make([]byte, constants.KEMPrivateKeySize)
	copy(pubBytes, id)
	copy(privBytes, id)
	if err := ctops.SecureRandom(pubBytes[constants.KeyIDSize:]); err != nil {
		return nil, err
	}
	if err := ctops.SecureRandom(privBytes[constants.KeyIDSize:]); err != nil {
		return nil, err
	}

	keyID := hex.EncodeToString(id)
	return &KeyPair{
		PublicKey:  &PublicKey{Bytes: pubBytes, KeyID: keyID},
		PrivateKey: &PrivateKey{Bytes: privBytes, KeyID: keyID},
		KeyID:      keyID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Encapsulate implements KEM. A fresh 32-byte shared secret is drawn and
// stored in the ciphertext XORed against the public wrap key.
func (s *Simulated) Encapsulate(pub *PublicKey) (*Encapsulation, error) {
	if pub == nil || len(pub.Bytes) != constants.KEMPublicKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	secret, err := ctops.SecureRandomBytes(constants.KEMSharedSecretSize)
	if err != nil {
		return nil, err
	}

	wrap := simWrapKey(pub.Bytes)
	wrapped, err := ctops.Xor(secret, wrap)
	if err != nil {
		return nil, qerrors.NewCryptoError("kem.Simulated.Encapsulate", err)
	}

	ciphertext := make([]byte, constants.KEMCiphertextSize)
	copy(ciphertext[:simWrappedSecretLen], wrapped)
	if err := ctops.SecureRandom(ciphertext[simWrappedSecretLen:]); err != nil {
		return nil, err
	}

	ctops.Zeroize(wrap)
	return &Encapsulation{Ciphertext: ciphertext, SharedSecret: secret}, nil
}

// Decapsulate implements KEM. With the matching key pair it reproduces the
// encapsulated secret exactly; with a consistent but different pair the
// wrap key differs, so a different value is returned without error.
func (s *Simulated) Decapsulate(ciphertext []byte, priv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if err := checkDecapsulateInputs(ciphertext, priv, pub); err != nil {
		return nil, err
	}

	wrap := simWrapKey(pub.Bytes)
	secret, err := ctops.Xor(ciphertext[:simWrappedSecretLen], wrap)
	if err != nil {
		return nil, qerrors.NewCryptoError("kem.Simulated.Decapsulate", err)
	}
	ctops.Zeroize(wrap)
	return secret, nil
}

// ValidateEmbeddedID checks the identifier embedded in the leading bytes of
// both key halves against the pair's KeyID. This is the structural check
// behind the KeyPair invariant for simulated keys.
func (s *Simulated) ValidateEmbeddedID(kp *KeyPair) error {
	if err := kp.Validate(); err != nil {
		return err
	}
	id, err := hex.DecodeString(kp.KeyID)
	if err != nil || len(id) != constants.KeyIDSize {
		return qerrors.ErrInvalidKeyPair
	}
	pubOK := ctops.Equal(kp.PublicKey.Bytes[:constants.KeyIDSize], id)
	privOK := ctops.Equal(kp.PrivateKey.Bytes[:constants.KeyIDSize], id)
	if !(pubOK && privOK) {
		return qerrors.ErrInvalidKeyPair
	}
	return nil
}

// simWrapKey derives the 32-byte wrap key from the public-key bytes.
// The derivation is public by construction; see the file header.
func simWrapKey(pubBytes []byte) []byte {
	h := sha3.NewShake256()
	h.Write([]byte(constants.DomainSeparatorSimKEM))
	h.Write(pubBytes)
	wrap := make([]byte, constants.KEMSharedSecretSize)
	_, _ = h.Read(wrap) // SHAKE256.Read never fails
	return wrap
}
