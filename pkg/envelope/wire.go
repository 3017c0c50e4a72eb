package envelope

import (
	"encoding/base64"
	"strings"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
)

// The KEM-wrapped share travels as a single string field:
//
//	{kemCiphertextBase64}:{wrappedShareBase64}
//
// Exactly one colon, both segments standard base64. The wrapped share is
// the 32-byte second share XORed with the encapsulated shared secret.

// EncodeKEMWrappedShare serializes a KEM ciphertext and masked share
// into the wire format.
func EncodeKEMWrappedShare(kemCiphertext, maskedShare []byte) (string, error) {
	if len(kemCiphertext) != constants.KEMCiphertextSize {
		return "", qerrors.NewCryptoError("envelope.encode_share", qerrors.ErrInvalidCiphertextLength)
	}
	if len(maskedShare) != constants.SymmetricKeySize {
		return "", qerrors.NewCryptoError("envelope.encode_share", qerrors.ErrInvalidFormat)
	}
	return base64.StdEncoding.EncodeToString(kemCiphertext) + ":" +
		base64.StdEncoding.EncodeToString(maskedShare), nil
}

// ParseKEMWrappedShare deserializes the wire format, enforcing the
// exact segment count and component sizes.
func ParseKEMWrappedShare(wire string) (kemCiphertext, maskedShare []byte, err error) {
	parts := strings.Split(wire, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, qerrors.NewCryptoError("envelope.parse_share", qerrors.ErrInvalidFormat)
	}

	kemCiphertext, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("envelope.parse_share", qerrors.ErrInvalidFormat)
	}
	maskedShare, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("envelope.parse_share", qerrors.ErrInvalidFormat)
	}

	if len(kemCiphertext) != constants.KEMCiphertextSize {
		return nil, nil, qerrors.NewCryptoError("envelope.parse_share", qerrors.ErrInvalidCiphertextLength)
	}
	if len(maskedShare) != constants.SymmetricKeySize {
		return nil, nil, qerrors.NewCryptoError("envelope.parse_share", qerrors.ErrInvalidFormat)
	}
	return kemCiphertext, maskedShare, nil
}

// VerifyIntegrity checks a DualKeyEnvelope for structural completeness
// without requiring either private key. It is a fast-path validity
// check, not a cryptographic verification: a passing envelope may still
// fail authentication at open time.
func VerifyIntegrity(env *DualKeyEnvelope) error {
	if env == nil {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrIncompleteEnvelope)
	}
	if env.ID == "" || env.KEMKeyID == "" || env.CustodyKeyPath == "" ||
		env.CustodyWrappedShare == "" || env.KEMWrappedShare == "" ||
		len(env.EncryptedData) == 0 {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrIncompleteEnvelope)
	}
	if env.AlgorithmVersion != constants.AlgorithmVersionDualKey {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrInvalidFormat)
	}
	if len(env.Nonce) != constants.NonceSize {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrInvalidNonce)
	}
	if len(env.AuthTag) != constants.AuthTagSize {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrInvalidCiphertextLength)
	}
	if _, err := base64.StdEncoding.DecodeString(env.CustodyWrappedShare); err != nil {
		return qerrors.NewCryptoError("envelope.verify", qerrors.ErrInvalidFormat)
	}
	if _, _, err := ParseKEMWrappedShare(env.KEMWrappedShare); err != nil {
		return err
	}
	return nil
}
