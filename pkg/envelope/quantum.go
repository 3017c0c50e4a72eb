package envelope

import (
	"time"

	"github.com/google/uuid"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
	"github.com/medvault-labs/sealkit/pkg/kem"
)

// QuantumSafeEnvelope protects a payload under a content key established
// through a KEM encapsulation. KeyID binds the envelope to exactly one
// key pair; a mismatched KeyID at open time is a hard failure, never a
// silent fallback to another key.
type QuantumSafeEnvelope struct {
	ID               string    `json:"id"`
	KEMCiphertext    []byte    `json:"kemCiphertext"`
	EncryptedData    []byte    `json:"encryptedData"`
	Nonce            []byte    `json:"nonce"`
	AuthTag          []byte    `json:"authTag"`
	KeyID            string    `json:"keyId"`
	EncryptedAt      time.Time `json:"encryptedAt"`
	AlgorithmVersion string    `json:"algorithmVersion"`
}

// CreateQuantumSafe encrypts data for the holder of the key pair behind
// pub. The encapsulated shared secret is used directly as the content
// key and zeroized before return.
func CreateQuantumSafe(k kem.KEM, data []byte, pub *kem.PublicKey) (*QuantumSafeEnvelope, error) {
	enc, err := k.Encapsulate(pub)
	if err != nil {
		return nil, err
	}
	defer ctops.Zeroize(enc.SharedSecret)

	payload, err := Seal(enc.SharedSecret, data)
	if err != nil {
		return nil, err
	}

	return &QuantumSafeEnvelope{
		ID:               uuid.NewString(),
		KEMCiphertext:    enc.Ciphertext,
		EncryptedData:    payload.Ciphertext,
		Nonce:            payload.Nonce,
		AuthTag:          payload.AuthTag,
		KeyID:            pub.KeyID,
		EncryptedAt:      time.Now().UTC(),
		AlgorithmVersion: constants.AlgorithmVersionQuantumSafe,
	}, nil
}

// OpenQuantumSafe recovers the payload of env. The envelope's KeyID is
// checked against both key halves before any decapsulation work.
func OpenQuantumSafe(k kem.KEM, env *QuantumSafeEnvelope, priv *kem.PrivateKey, pub *kem.PublicKey) ([]byte, error) {
	if env == nil || priv == nil || pub == nil {
		return nil, qerrors.NewCryptoError("envelope.open_quantum_safe", qerrors.ErrIncompleteEnvelope)
	}
	if !ctops.EqualString(env.KeyID, priv.KeyID) || !ctops.EqualString(env.KeyID, pub.KeyID) {
		return nil, qerrors.NewCryptoError("envelope.open_quantum_safe", qerrors.ErrKeyMismatch)
	}

	secret, err := k.Decapsulate(env.KEMCiphertext, priv, pub)
	if err != nil {
		return nil, err
	}
	defer ctops.Zeroize(secret)

	return Open(secret, &SymmetricEnvelope{
		Ciphertext: env.EncryptedData,
		Nonce:      env.Nonce,
		AuthTag:    env.AuthTag,
		Suite:      constants.CipherSuiteAES256GCM,
	})
}
