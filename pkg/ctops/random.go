// random.go provides CSPRNG access, secure zeroing and the hardened random
// generator.
//
// Security Note: all random number generation is rooted in crypto/rand,
// which sources entropy from the operating system's CSPRNG. The hardened
// generator additionally mixes two independent draws and a timestamp
// through SHAKE-256 so that a transient weakness in a single draw does not
// surface directly in key material.

package ctops

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"runtime"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
)

// SecureRandom reads cryptographically secure random bytes into b.
// It only fails if the system CSPRNG fails, which should be treated as a
// critical system failure.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return qerrors.NewCryptoError("ctops.SecureRandom", qerrors.ErrRandomSourceFailed)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HardenedRandom returns n bytes from the hardened generator: two
// independent CSPRNG draws and a nanosecond timestamp are mixed through
// SHAKE-256 and the digest is truncated to n.
//
// n is capped at constants.HardenedRandomMaxLen (32, the hash output
// size). Callers needing more must invoke multiple times and concatenate;
// each invocation draws fresh entropy.
func HardenedRandom(n int) ([]byte, error) {
	if n <= 0 || n > constants.HardenedRandomMaxLen {
		return nil, qerrors.NewCryptoError("ctops.HardenedRandom", qerrors.ErrInvalidKeySize)
	}

	draw1 := make([]byte, 32)
	draw2 := make([]byte, 32)
	if err := SecureRandom(draw1); err != nil {
		return nil, err
	}
	if err := SecureRandom(draw2); err != nil {
		return nil, err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixNano()))

	h := sha3.NewShake256()
	h.Write([]byte(constants.DomainSeparatorHardenedRNG))
	h.Write(draw1)
	h.Write(draw2)
	h.Write(ts)

	digest := make([]byte, constants.HardenedRandomMaxLen)
	_, _ = h.Read(digest) // SHAKE256.Read never fails

	out := make([]byte, n)
	copy(out, digest[:n])

	Zeroize(draw1)
	Zeroize(draw2)
	Zeroize(digest)

	return out, nil
}

// Zeroize overwrites b with zeros. The runtime.KeepAlive barrier prevents
// the compiler from eliding the writes as dead stores.
//
// Note: the Go runtime may already have copied the data. For maximum
// assurance, pair this with OS-level memory protections in deployment.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroizeMultiple overwrites several byte slices with zeros.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}
