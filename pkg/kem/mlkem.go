// mlkem.go implements the ML-KEM-768 backed KEM.
//
// ML-KEM (Module-Lattice-based Key-Encapsulation Mechanism) is
// standardized in NIST FIPS 203; its security rests on the Module Learning
// With Errors problem. ML-KEM-768 provides NIST Category 3 security and
// produces exactly the sizes this package's interface fixes: 1184-byte
// public keys, 2400-byte private keys, 1088-byte ciphertexts, 32-byte
// shared secrets.
//
// Decapsulation uses implicit rejection (the Fujisaki-Okamoto transform):
// a ciphertext produced for a different key pair decapsulates to a value
// indistinguishable from random rather than raising an error, which is the
// behavior the interface contract requires.
//
// Because real lattice keys cannot embed an arbitrary identifier, the
// 16-byte key ID is derived from a SHAKE-256 hash of the public key at
// generation time and carried on both halves of the pair.

package kem

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/sha3"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// MLKEM is the ML-KEM-768 implementation of the KEM interface.
type MLKEM struct{}

// NewMLKEM returns the ML-KEM-768 implementation.
func NewMLKEM() *MLKEM {
	return &MLKEM{}
}

// Name implements KEM.
func (m *MLKEM) Name() string { return "ml-kem-768" }

// GenerateKeyPair implements KEM. A pairwise consistency check
// (encapsulate, decapsulate, compare) runs on every generated pair before
// it is returned; an inconsistent pair is a generation failure.
func (m *MLKEM) GenerateKeyPair() (*KeyPair, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("kem.MLKEM.GenerateKeyPair", err)
	}

	pubBytes := make([]byte, mlkem768.PublicKeySize)
	privBytes := make([]byte, mlkem768.PrivateKeySize)
	pk.Pack(pubBytes)
	sk.Pack(privBytes)

	keyID := deriveKeyID(pubBytes)
	pair := &KeyPair{
		PublicKey:  &PublicKey{Bytes: pubBytes, KeyID: keyID},
		PrivateKey: &PrivateKey{Bytes: privBytes, KeyID: keyID},
		KeyID:      keyID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := m.pairwiseConsistencyCheck(pair); err != nil {
		pair.Zeroize()
		return nil, qerrors.NewCryptoError("kem.MLKEM.GenerateKeyPair", err)
	}
	return pair, nil
}

// Encapsulate implements KEM.
func (m *MLKEM) Encapsulate(pub *PublicKey) (*Encapsulation, error) {
	if pub == nil || len(pub.Bytes) != constants.KEMPublicKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(pub.Bytes); err != nil {
		return nil, qerrors.NewCryptoError("kem.MLKEM.Encapsulate", err)
	}

	seed := make([]byte, mlkem768.EncapsulationSeedSize)
	if err := ctops.SecureRandom(seed); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, mlkem768.CiphertextSize)
	secret := make([]byte, mlkem768.SharedKeySize)
	pk.EncapsulateTo(ciphertext, secret, seed)
	ctops.Zeroize(seed)

	return &Encapsulation{Ciphertext: ciphertext, SharedSecret: secret}, nil
}

// Decapsulate implements KEM.
func (m *MLKEM) Decapsulate(ciphertext []byte, priv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if err := checkDecapsulateInputs(ciphertext, priv, pub); err != nil {
		return nil, err
	}

	sk := new(mlkem768.PrivateKey)
	if err := sk.Unpack(priv.Bytes); err != nil {
		return nil, qerrors.NewCryptoError("kem.MLKEM.Decapsulate", err)
	}

	secret := make([]byte, mlkem768.SharedKeySize)
	sk.DecapsulateTo(secret, ciphertext)
	return secret, nil
}

// pairwiseConsistencyCheck verifies a freshly generated pair round-trips a
// shared secret.
func (m *MLKEM) pairwiseConsistencyCheck(pair *KeyPair) error {
	enc, err := m.Encapsulate(pair.PublicKey)
	if err != nil {
		return err
	}
	defer ctops.ZeroizeMultiple(enc.SharedSecret)

	recovered, err := m.Decapsulate(enc.Ciphertext, pair.PrivateKey, pair.PublicKey)
	if err != nil {
		return err
	}
	defer ctops.Zeroize(recovered)

	if !ctops.Equal(enc.SharedSecret, recovered) {
		return qerrors.ErrInvalidKeyPair
	}
	if ctops.IsZero(recovered) {
		return qerrors.ErrInvalidKeyPair
	}
	return nil
}

// deriveKeyID computes the 16-byte hash-derived identifier for a packed
// public key.
func deriveKeyID(pubBytes []byte) string {
	h := sha3.NewShake256()
	h.Write([]byte(constants.DomainSeparatorKeyID))
	h.Write(pubBytes)
	id := make([]byte, constants.KeyIDSize)
	_, _ = h.Read(id)
	return hex.EncodeToString(id)
}
