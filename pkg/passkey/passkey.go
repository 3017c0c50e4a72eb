// Package passkey derives and verifies passphrase-based keys using
// Argon2id.
//
// A single derivation produces 64 bytes: the first half is the
// encryption key handed to the caller, the second half is a verification
// digest stored inside a PHC-formatted hash string. The stored hash
// therefore never reveals the encryption key.
package passkey

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
)

// Params are the Argon2id cost parameters baked into a derivation.
type Params struct {
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
}

// DefaultParams returns the current parameter set.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   constants.ArgonMemoryKiB,
		Time:        constants.ArgonTime,
		Parallelism: constants.ArgonParallelism,
	}
}

// DerivedKeyMaterial is the result of a passphrase derivation. Key is
// the caller's encryption key; it is deliberately excluded from JSON
// serialization. VerificationHash is safe to persist.
type DerivedKeyMaterial struct {
	Key              []byte `json:"-"`
	Salt             []byte `json:"salt"`
	VerificationHash string `json:"verificationHash"`
	Version          int    `json:"version"`
	Algorithm        string `json:"algorithm"`
}

// Zeroize wipes the derived key.
func (m *DerivedKeyMaterial) Zeroize() {
	if m != nil {
		ctops.Zeroize(m.Key)
	}
}

// Derive derives key material from a passphrase with a fresh random salt.
func Derive(passphrase string) (*DerivedKeyMaterial, error) {
	salt, err := ctops.SecureRandomBytes(constants.ArgonSaltSize)
	if err != nil {
		return nil, qerrors.NewCryptoError("passkey.derive", err)
	}
	return DeriveWithSalt(passphrase, salt)
}

// DeriveWithSalt derives key material from a passphrase and a
// caller-supplied 16-byte salt.
func DeriveWithSalt(passphrase string, salt []byte) (*DerivedKeyMaterial, error) {
	if err := checkPassphrase(passphrase); err != nil {
		return nil, err
	}
	if len(salt) != constants.ArgonSaltSize {
		return nil, qerrors.NewCryptoError("passkey.derive", qerrors.ErrInvalidFormat)
	}

	params := DefaultParams()
	key, digest := deriveSplit(passphrase, salt, params)

	return &DerivedKeyMaterial{
		Key:              key,
		Salt:             salt,
		VerificationHash: encodePHC(params, salt, digest),
		Version:          constants.PasskeyVersion,
		Algorithm:        "argon2id",
	}, nil
}

// Verify reports whether passphrase matches a stored verification hash.
// It never fails on malformed input, only returns false.
func Verify(passphrase, hash string) bool {
	if checkPassphrase(passphrase) != nil {
		return false
	}
	params, salt, digest, err := decodePHC(hash)
	if err != nil {
		return false
	}

	_, candidate := deriveSplit(passphrase, salt, params)
	defer ctops.Zeroize(candidate)
	return ctops.Equal(candidate, digest)
}

// Rederive recovers the encryption key from a passphrase and previously
// stored material. The passphrase is verified against the stored hash
// first; a mismatch fails with InvalidPassphrase and no derivation
// result.
func Rederive(passphrase string, stored *DerivedKeyMaterial) (*DerivedKeyMaterial, error) {
	if err := checkPassphrase(passphrase); err != nil {
		return nil, err
	}
	if stored == nil || stored.VerificationHash == "" {
		return nil, qerrors.NewCryptoError("passkey.rederive", qerrors.ErrInvalidFormat)
	}
	if !Verify(passphrase, stored.VerificationHash) {
		return nil, qerrors.NewCryptoError("passkey.rederive", qerrors.ErrInvalidPassphrase)
	}

	params, salt, _, err := decodePHC(stored.VerificationHash)
	if err != nil {
		return nil, qerrors.NewCryptoError("passkey.rederive", qerrors.ErrInvalidFormat)
	}

	key, digest := deriveSplit(passphrase, salt, params)
	return &DerivedKeyMaterial{
		Key:              key,
		Salt:             salt,
		VerificationHash: encodePHC(params, salt, digest),
		Version:          stored.Version,
		Algorithm:        "argon2id",
	}, nil
}

// NeedsRehash reports whether a stored hash was produced with stale
// parameters and should be re-derived with the current set once the
// passphrase is next available.
func NeedsRehash(hash string) bool {
	params, _, _, err := decodePHC(hash)
	if err != nil {
		return true
	}
	return params != DefaultParams()
}

// checkPassphrase enforces the minimum length in both characters and
// UTF-8 bytes, so multi-byte input is handled safely.
func checkPassphrase(passphrase string) error {
	if utf8.RuneCountInString(passphrase) < constants.MinPassphraseLength ||
		len(passphrase) < constants.MinPassphraseLength {
		return qerrors.NewCryptoError("passkey.check", qerrors.ErrPassphraseTooShort)
	}
	return nil
}

// deriveSplit runs one Argon2id derivation producing the encryption key
// and the verification digest from disjoint halves of the output.
func deriveSplit(passphrase string, salt []byte, params Params) (key, digest []byte) {
	out := argon2.IDKey([]byte(passphrase), salt,
		params.Time, params.MemoryKiB, params.Parallelism,
		uint32(2*constants.ArgonKeySize))

	key = make([]byte, constants.ArgonKeySize)
	digest = make([]byte, constants.ArgonKeySize)
	copy(key, out[:constants.ArgonKeySize])
	copy(digest, out[constants.ArgonKeySize:])
	ctops.Zeroize(out)
	return key, digest
}

// encodePHC formats parameters, salt and digest in the PHC string
// format: $argon2id$v=19$m=...,t=...,p=...$salt$digest
func encodePHC(params Params, salt, digest []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.MemoryKiB, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest))
}

// decodePHC parses a PHC hash string produced by encodePHC.
func decodePHC(hash string) (Params, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, qerrors.ErrInvalidFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, qerrors.ErrInvalidFormat
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.MemoryKiB, &params.Time, &params.Parallelism); err != nil {
		return Params{}, nil, nil, qerrors.ErrInvalidFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) != constants.ArgonSaltSize {
		return Params{}, nil, nil, qerrors.ErrInvalidFormat
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) != constants.ArgonKeySize {
		return Params{}, nil, nil, qerrors.ErrInvalidFormat
	}
	return params, salt, digest, nil
}
