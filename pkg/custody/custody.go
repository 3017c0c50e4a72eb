// Package custody defines the narrow contract through which sealkit
// consumes the external asymmetric key-custody service, plus an HTTP
// client implementation and an in-memory fake for tests.
//
// The custody service alone holds the private halves of its asymmetric
// keys. This package never sees them: wrapping a share happens locally
// with the service's public key (RSA-OAEP/SHA-256), and unwrapping is a
// remote round trip. Custody failures are surfaced as retryable
// errors.CustodyError values, kept strictly distinct from cryptographic
// failures so callers can tell "try again" apart from "this data is
// unrecoverable".
//
// Key paths follow the format
// projects/{proj}/locations/{loc}/keyRings/{ring}/cryptoKeys/{key}/cryptoKeyVersions/{version}.
package custody

import (
	"context"
	"time"
)

// PublicKeyInfo is the custody service's response to a public-key request.
type PublicKeyInfo struct {
	// PublicKeyPEM is the PKIX-encoded RSA public key.
	PublicKeyPEM string `json:"publicKeyPem"`

	// KeyPath is the full custody key path of this version.
	KeyPath string `json:"keyPath"`

	// KeyVersion is the version component of KeyPath.
	KeyVersion string `json:"keyVersion"`

	// Algorithm names the wrapping algorithm (e.g. "RSA_DECRYPT_OAEP_4096_SHA256").
	Algorithm string `json:"algorithm"`
}

// KeyVersion describes one version of the custody key.
type KeyVersion struct {
	// Path is the full custody key path of this version.
	Path string `json:"path"`

	// CreatedAt is when the custody service created this version.
	CreatedAt time.Time `json:"createdAt"`

	// State is the custody-side lifecycle state (e.g. "ENABLED").
	State string `json:"state"`
}

// Service is the request/response contract the core requires from the
// custody service. Implementations must be safe for concurrent use; every
// method honors context cancellation and deadlines, since the custody
// service is an external dependency with its own availability profile.
type Service interface {
	// GetPublicKey returns the public half of the named key version, or of
	// the current version when version is empty. Responses may be cached;
	// cache entries are keyed by exact key-version path and invalidated
	// explicitly after a rotation.
	GetPublicKey(ctx context.Context, version string) (*PublicKeyInfo, error)

	// AsymmetricDecrypt unwraps a base64 ciphertext produced with the
	// named version's public key. The decryption happens remotely; the
	// private key never leaves the custody service.
	AsymmetricDecrypt(ctx context.Context, ciphertextB64 string, version string) ([]byte, error)

	// ListKeyVersions returns all versions of the custody key, newest
	// first.
	ListKeyVersions(ctx context.Context) ([]KeyVersion, error)

	// EnableAutoRotation configures the custody service's own periodic
	// rotation of the key.
	EnableAutoRotation(ctx context.Context, periodDays int) error
}
