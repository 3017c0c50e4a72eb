// Package kem defines the key-encapsulation abstraction used to wrap
// envelope content keys, and provides two implementations of it:
//
//   - Simulated: a deterministic stand-in that satisfies the interface
//     contract (sizes, round-trip, key-mismatch detection) but NOT the
//     security contract. It derives its wrap key from a public hash of the
//     public-key bytes and must be replaced by a certified implementation
//     before production use.
//   - MLKEM: ML-KEM-768 (NIST FIPS 203) via cloudflare/circl, the
//     certified substitution path, behind the same interface.
//
// Both implementations share exact size constants: 1184-byte public keys,
// 2400-byte private keys, 1088-byte ciphertexts, 32-byte shared secrets.
//
// Key pairs are created once by an operator and held by the decrypting
// party; they are never regenerated per message. Encapsulations are fresh
// per encryption operation and never reused.
package kem

import (
	"time"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// PublicKey is a KEM encapsulation key plus its identifier.
type PublicKey struct {
	// Bytes is the packed key, constants.KEMPublicKeySize long.
	Bytes []byte

	// KeyID is the 16-byte key-pair identifier in lowercase hex.
	KeyID string
}

// PrivateKey is a KEM decapsulation key plus its identifier.
// Private keys must never appear inside an envelope or a log.
type PrivateKey struct {
	// Bytes is the packed key, constants.KEMPrivateKeySize long.
	Bytes []byte

	// KeyID is the 16-byte key-pair identifier in lowercase hex. It must
	// match the KeyID of the corresponding public key.
	KeyID string
}

// KeyPair bundles the two halves of a KEM key pair.
type KeyPair struct {
	PublicKey  *PublicKey
	PrivateKey *PrivateKey
	KeyID      string
	CreatedAt  time.Time
}

// Encapsulation is the output of a single encapsulate operation.
type Encapsulation struct {
	// Ciphertext is constants.KEMCiphertextSize bytes and travels inside
	// the envelope.
	Ciphertext []byte

	// SharedSecret is constants.KEMSharedSecretSize bytes and must be
	// zeroized by the caller once the content key is derived.
	SharedSecret []byte
}

// KEM is the key-encapsulation contract consumed by the envelope layer.
// Implementations must preserve it unchanged: a production deployment
// swaps the Simulated implementation for a certified one behind this
// interface without touching callers.
type KEM interface {
	// Name identifies the implementation (e.g. "simulated", "ml-kem-768").
	Name() string

	// GenerateKeyPair produces a fresh key pair whose halves share an
	// embedded 16-byte identifier.
	GenerateKeyPair() (*KeyPair, error)

	// Encapsulate produces a fresh ciphertext and shared secret for the
	// holder of priv.
	Encapsulate(pub *PublicKey) (*Encapsulation, error)

	// Decapsulate recovers the shared secret. It fails with
	// errors.ErrKeyMismatch when priv and pub carry different key IDs and
	// with errors.ErrInvalidCiphertextLength on a malformed ciphertext.
	// Decapsulating with a consistent but wrong key pair yields a
	// different secret rather than an error (indistinguishable failure).
	Decapsulate(ciphertext []byte, priv *PrivateKey, pub *PublicKey) ([]byte, error)
}

// Validate checks the structural invariants of a key pair: both halves
// present, exact sizes, and a shared identifier. A pair failing this check
// is invalid and must not be used.
func (kp *KeyPair) Validate() error {
	if kp == nil || kp.PublicKey == nil || kp.PrivateKey == nil {
		return qerrors.ErrInvalidKeyPair
	}
	if len(kp.PublicKey.Bytes) != constants.KEMPublicKeySize {
		return qerrors.ErrInvalidKeySize
	}
	if len(kp.PrivateKey.Bytes) != constants.KEMPrivateKeySize {
		return qerrors.ErrInvalidKeySize
	}
	if kp.PublicKey.KeyID == "" ||
		!ctops.EqualString(kp.PublicKey.KeyID, kp.PrivateKey.KeyID) ||
		!ctops.EqualString(kp.KeyID, kp.PublicKey.KeyID) {
		return qerrors.ErrInvalidKeyPair
	}
	return nil
}

// Zeroize erases the private key material and drops the references.
func (kp *KeyPair) Zeroize() {
	if kp == nil {
		return
	}
	if kp.PrivateKey != nil {
		ctops.Zeroize(kp.PrivateKey.Bytes)
		kp.PrivateKey = nil
	}
	kp.PublicKey = nil
}

// checkDecapsulateInputs performs the validation shared by both
// implementations. The key-ID comparison goes through ctops so the
// mismatch path does not branch on secret-adjacent bytes.
func checkDecapsulateInputs(ciphertext []byte, priv *PrivateKey, pub *PublicKey) error {
	if priv == nil || len(priv.Bytes) != constants.KEMPrivateKeySize {
		return qerrors.ErrInvalidKeySize
	}
	if pub == nil || len(pub.Bytes) != constants.KEMPublicKeySize {
		return qerrors.ErrInvalidKeySize
	}
	if len(ciphertext) != constants.KEMCiphertextSize {
		return qerrors.ErrInvalidCiphertextLength
	}
	if !ctops.EqualString(priv.KeyID, pub.KeyID) {
		return qerrors.ErrKeyMismatch
	}
	return nil
}
