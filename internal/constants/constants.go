// Package constants defines security parameters and size constants for the
// sealkit envelope-encryption core.
//
// Every binary field in the envelope formats has a fixed size; the values
// here are load-bearing for wire-format parsing and must not change within
// an algorithm version.
package constants

// KEM parameters. The sizes match ML-KEM-768 (NIST FIPS 203), which both
// the simulated and the circl-backed implementations produce.
const (
	// KEMPublicKeySize is the size of a KEM public (encapsulation) key in bytes.
	KEMPublicKeySize = 1184

	// KEMPrivateKeySize is the size of a KEM private (decapsulation) key in bytes.
	KEMPrivateKeySize = 2400

	// KEMCiphertextSize is the size of a KEM ciphertext in bytes.
	KEMCiphertextSize = 1088

	// KEMSharedSecretSize is the size of the KEM shared secret in bytes.
	KEMSharedSecretSize = 32

	// KeyIDSize is the size of the identifier embedded in both halves of a
	// KEM key pair, in bytes. Key IDs render as 32 hex characters.
	KeyIDSize = 16
)

// Symmetric encryption parameters (AES-256-GCM and ChaCha20-Poly1305).
const (
	// SymmetricKeySize is the size of content keys in bytes (256 bits).
	SymmetricKeySize = 32

	// NonceSize is the AEAD nonce size in bytes (96 bits).
	NonceSize = 12

	// AuthTagSize is the AEAD authentication tag size in bytes (128 bits).
	AuthTagSize = 16
)

// Passphrase key derivation parameters (Argon2id).
const (
	// ArgonMemoryKiB is the Argon2id memory cost in KiB (64 MiB).
	ArgonMemoryKiB = 64 * 1024

	// ArgonTime is the Argon2id time cost (iterations).
	ArgonTime = 3

	// ArgonParallelism is the Argon2id lane count.
	ArgonParallelism = 4

	// ArgonSaltSize is the salt size in bytes.
	ArgonSaltSize = 16

	// ArgonKeySize is the derived key size in bytes.
	ArgonKeySize = 32

	// MinPassphraseLength is the minimum passphrase length, enforced both
	// in characters and in UTF-8 bytes.
	MinPassphraseLength = 8

	// PasskeyVersion tags DerivedKeyMaterial with the parameter set that
	// produced it. Bump when Argon parameters change.
	PasskeyVersion = 1
)

// Key rotation parameters.
const (
	// DefaultRotationPeriodDays is the default custody-key rotation period.
	DefaultRotationPeriodDays = 90

	// MaxCompliantRotationDays is the longest rotation period that passes
	// compliance checks without a finding.
	MaxCompliantRotationDays = 90
)

// Hardened random generator parameters.
const (
	// HardenedRandomMaxLen is the largest output a single hardened-random
	// call can produce: the SHA3-256 digest size. Callers needing more
	// must invoke multiple times and concatenate.
	HardenedRandomMaxLen = 32
)

// Envelope algorithm versions. Stored inside every envelope so that
// older records remain openable after parameter changes.
const (
	// AlgorithmVersionQuantumSafe identifies the KEM-bound envelope format.
	AlgorithmVersionQuantumSafe = "qse-v1"

	// AlgorithmVersionDualKey identifies the dual-wrap envelope format.
	AlgorithmVersionDualKey = "dke-v1"
)

// Domain separators for SHAKE-256 derivations.
const (
	// DomainSeparatorSimKEM is mixed into the simulated KEM's wrap key.
	DomainSeparatorSimKEM = "sealkit-simkem-v1-wrap"

	// DomainSeparatorKeyID is mixed into hash-derived key identifiers.
	DomainSeparatorKeyID = "sealkit-keyid-v1"

	// DomainSeparatorHardenedRNG is mixed into the hardened random generator.
	DomainSeparatorHardenedRNG = "sealkit-hrng-v1"
)

// Custody service parameters.
const (
	// DefaultPublicKeyCacheTTLSeconds bounds how long a custody public-key
	// response may be served from cache before a fresh round trip.
	DefaultPublicKeyCacheTTLSeconds = 3600

	// CustodyKeyPathFormat is the expected shape of custody key paths.
	CustodyKeyPathFormat = "projects/{proj}/locations/{loc}/keyRings/{ring}/cryptoKeys/{key}/cryptoKeyVersions/{version}"
)

// CipherSuite identifies the AEAD used by a symmetric envelope.
type CipherSuite uint16

const (
	// CipherSuiteAES256GCM uses AES-256-GCM (the default).
	CipherSuiteAES256GCM CipherSuite = 0x0001

	// CipherSuiteChaCha20Poly1305 uses ChaCha20-Poly1305.
	CipherSuiteChaCha20Poly1305 CipherSuite = 0x0002
)

// String returns a human-readable name for the cipher suite.
func (cs CipherSuite) String() string {
	switch cs {
	case CipherSuiteAES256GCM:
		return "AES-256-GCM"
	case CipherSuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsSupported returns true if the cipher suite is supported.
func (cs CipherSuite) IsSupported() bool {
	return cs == CipherSuiteAES256GCM || cs == CipherSuiteChaCha20Poly1305
}
