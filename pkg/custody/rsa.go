// rsa.go performs the local half of the custody wrap: encrypting a secret
// share with the service's public key using RSA-OAEP/SHA-256. The matching
// decrypt happens remotely inside the custody service.

package custody

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	qerrors "github.com/medvault-labs/sealkit/internal/errors"
)

// EncryptShare wraps share with the custody public key and returns the
// base64-encoded ciphertext. The PEM must contain a PKIX-encoded RSA
// public key, as returned by Service.GetPublicKey.
func EncryptShare(publicKeyPEM string, share []byte) (string, error) {
	pub, err := parseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return "", qerrors.NewCryptoError("custody.EncryptShare", err)
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, share, nil)
	if err != nil {
		return "", qerrors.NewCryptoError("custody.EncryptShare", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to decode public key PEM")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return pub, nil
}
