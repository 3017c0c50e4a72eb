// Package envelope implements authenticated envelope encryption for
// records at rest.
//
// Three envelope shapes are provided:
//
//   - SymmetricEnvelope: AEAD encryption under a caller-held 256-bit key.
//   - QuantumSafeEnvelope: the content key is established through a KEM
//     encapsulation against a recipient public key.
//   - DualKeyEnvelope: the content key is split two-of-two and each share
//     is wrapped through an independent path (custody service + KEM), so
//     recovery requires both.
//
// Envelope records are self-contained value objects. Private keys and
// custody credentials never appear inside an envelope.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// SymmetricEnvelope is the output of one authenticated encryption. The
// tag is kept separate from the ciphertext so stores can index or
// validate records without reassembling the AEAD output.
type SymmetricEnvelope struct {
	Ciphertext []byte                `json:"ciphertext"`
	Nonce      []byte                `json:"nonce"`
	AuthTag    []byte                `json:"authTag"`
	Suite      constants.CipherSuite `json:"suite"`
}

// Seal encrypts plaintext under a 256-bit key with the default cipher
// suite, drawing a fresh 96-bit nonce. Nonces are never reused under the
// same key.
func Seal(key, plaintext []byte) (*SymmetricEnvelope, error) {
	return SealWithSuite(key, plaintext, constants.CipherSuiteAES256GCM)
}

// SealWithSuite is Seal with an explicit cipher suite.
func SealWithSuite(key, plaintext []byte, suite constants.CipherSuite) (*SymmetricEnvelope, error) {
	aead, err := newAEAD(key, suite)
	if err != nil {
		return nil, err
	}

	nonce, err := ctops.SecureRandomBytes(constants.NonceSize)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.seal", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - constants.AuthTagSize

	return &SymmetricEnvelope{
		Ciphertext: sealed[:tagStart],
		Nonce:      nonce,
		AuthTag:    sealed[tagStart:],
		Suite:      suite,
	}, nil
}

// Open decrypts a SymmetricEnvelope. Tag verification failure returns
// AuthenticationFailed with no plaintext, partial or otherwise.
func Open(key []byte, env *SymmetricEnvelope) ([]byte, error) {
	if env == nil {
		return nil, qerrors.NewCryptoError("envelope.open", qerrors.ErrIncompleteEnvelope)
	}
	if len(env.Nonce) != constants.NonceSize {
		return nil, qerrors.NewCryptoError("envelope.open", qerrors.ErrInvalidNonce)
	}
	if len(env.AuthTag) != constants.AuthTagSize {
		return nil, qerrors.NewCryptoError("envelope.open", qerrors.ErrInvalidCiphertextLength)
	}

	aead, err := newAEAD(key, env.Suite)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.AuthTag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.open", qerrors.ErrAuthenticationFailed)
	}
	return plaintext, nil
}

// newAEAD constructs the AEAD for a suite after validating the key size.
func newAEAD(key []byte, suite constants.CipherSuite) (cipher.AEAD, error) {
	if len(key) != constants.SymmetricKeySize {
		return nil, qerrors.NewCryptoError("envelope.aead", qerrors.ErrInvalidKeySize)
	}

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("envelope.aead", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, qerrors.NewCryptoError("envelope.aead", err)
		}
		return aead, nil
	case constants.CipherSuiteChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("envelope.aead", err)
		}
		return aead, nil
	default:
		return nil, qerrors.NewCryptoError("envelope.aead", qerrors.ErrInvalidFormat)
	}
}
