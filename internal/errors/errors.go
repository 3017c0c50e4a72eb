// Package errors defines the error taxonomy for the sealkit
// envelope-encryption core. Error messages never include key material or
// the position of a differing byte.
//
// The taxonomy distinguishes three caller-visible classes:
//
//   - Fatal cryptographic failures (ErrKeyMismatch, ErrAuthenticationFailed):
//     the data is unrecoverable with the presented keys; retrying is useless.
//   - Caller errors (ErrInvalidCiphertextLength, ErrInvalidFormat,
//     ErrPassphraseTooShort, ErrInvalidPassphrase): the input was malformed
//     or wrong; a corrected resubmission may succeed.
//   - Custody-service failures (CustodyError): the external dependency
//     misbehaved; these carry a Retryable flag so callers can distinguish
//     "try again" from "this data is unrecoverable".
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for KEM operations
var (
	// ErrKeyMismatch indicates the private and public key do not belong to
	// the same pair, or an envelope is bound to a different key pair.
	ErrKeyMismatch = errors.New("kem: key pair mismatch")

	// ErrInvalidCiphertextLength indicates a KEM ciphertext has the wrong length.
	ErrInvalidCiphertextLength = errors.New("kem: invalid ciphertext length")

	// ErrInvalidKeySize indicates a key has an incorrect size.
	ErrInvalidKeySize = errors.New("kem: invalid key size")

	// ErrInvalidKeyPair indicates the two halves of a key pair do not share
	// an embedded identifier.
	ErrInvalidKeyPair = errors.New("kem: inconsistent key pair")
)

// Sentinel errors for envelope operations
var (
	// ErrAuthenticationFailed indicates AEAD tag verification failed. The
	// entire envelope is invalid; no plaintext is returned.
	ErrAuthenticationFailed = errors.New("envelope: authentication failed")

	// ErrInvalidFormat indicates an envelope field is structurally malformed.
	ErrInvalidFormat = errors.New("envelope: invalid format")

	// ErrIncompleteEnvelope indicates a required envelope field is missing.
	ErrIncompleteEnvelope = errors.New("envelope: incomplete record")

	// ErrInvalidNonce indicates the nonce size is incorrect.
	ErrInvalidNonce = errors.New("envelope: invalid nonce size")

	// ErrShareMissing indicates a secret-share reconstruction was attempted
	// without all shares present.
	ErrShareMissing = errors.New("envelope: reconstruction requires all shares")
)

// Sentinel errors for passphrase key derivation
var (
	// ErrPassphraseTooShort indicates a passphrase under 8 characters or
	// under 8 UTF-8 bytes.
	ErrPassphraseTooShort = errors.New("passkey: passphrase too short")

	// ErrInvalidPassphrase indicates a passphrase failed verification
	// against a stored hash.
	ErrInvalidPassphrase = errors.New("passkey: invalid passphrase")
)

// Sentinel errors for the constant-time primitives
var (
	// ErrSelfTestFailed indicates the constant-time primitive self-test
	// did not pass; the process should not perform cryptographic work.
	ErrSelfTestFailed = errors.New("ctops: self-test failed")

	// ErrRandomSourceFailed indicates the system CSPRNG failed, which is a
	// critical system failure.
	ErrRandomSourceFailed = errors.New("ctops: random source failed")
)

// CryptoError wraps a cryptographic error with the operation that failed.
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// CustodyError wraps a failure of the external key-custody service.
// Custody errors are kept distinct from cryptographic failures so callers
// can retry transport problems without ever retrying an authentication
// failure.
type CustodyError struct {
	Op        string // Custody operation (e.g. "GetPublicKey")
	Err       error  // Underlying error
	Retryable bool   // True for network/availability failures
}

func (e *CustodyError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("custody %s (retryable): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("custody %s: %v", e.Op, e.Err)
}

func (e *CustodyError) Unwrap() error {
	return e.Err
}

// NewCustodyError creates a new CustodyError.
func NewCustodyError(op string, err error, retryable bool) *CustodyError {
	return &CustodyError{Op: op, Err: err, Retryable: retryable}
}

// IsRetryable reports whether err is a custody failure worth retrying.
// Cryptographic failures are never retryable.
func IsRetryable(err error) bool {
	var ce *CustodyError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
