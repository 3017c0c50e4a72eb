// Package ctops implements side-channel-resistant primitives used by every
// other component of sealkit: constant-time comparison, selection, bitwise
// combination, secure zeroing, and a hardened random generator.
//
// Every comparison and selection function executes the same sequence of
// memory accesses and branches regardless of input values. Only input
// lengths, which are not secret, may vary control flow. The implementations
// use fixed-iteration loops and explicit bitmask arithmetic; there is no
// short-circuiting on secret bytes anywhere in this package.
//
// A self-test covering every primitive runs once at package load; see
// SelfTest.
package ctops

import (
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
)

// Equal compares two byte slices in constant time. It returns true only if
// the slices have the same length and contents.
//
// When the lengths differ, a dummy comparison of matching cost is still
// performed so that the length-mismatch path is not distinguishable by
// timing from a value mismatch of the same size.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		// Burn the same work comparing a against itself, then fail.
		var dummy byte
		for i := range a {
			dummy |= a[i] ^ a[i]
		}
		for i := range b {
			dummy |= b[i] ^ b[i]
		}
		return dummy != 0 // always false
	}

	var result byte
	for i := range a {
		result |= a[i] ^ b[i]
	}
	return result == 0
}

// EqualString compares two strings in constant time.
func EqualString(a, b string) bool {
	return Equal([]byte(a), []byte(b))
}

// IsZero reports whether every byte of b is zero, in constant time.
func IsZero(b []byte) bool {
	var acc byte
	for i := range b {
		acc |= b[i]
	}
	return acc == 0
}

// Compare performs a constant-time lexicographic 3-way comparison.
// It returns -1 if a < b, 0 if a == b, and +1 if a > b. The contents of
// both slices are always read in full; only the (public) lengths influence
// the iteration count.
func Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var res, decided int32
	for i := 0; i < n; i++ {
		ai := int32(a[i])
		bi := int32(b[i])

		lt := ((ai - bi) >> 31) & 1 // 1 if a[i] < b[i]
		gt := ((bi - ai) >> 31) & 1 // 1 if a[i] > b[i]
		diff := lt | gt

		// Record the first differing position without branching.
		first := diff & (1 ^ decided)
		res += (gt - lt) * first
		decided |= diff
	}

	// Equal prefixes: the shorter slice sorts first.
	la := int32(len(a))
	lb := int32(len(b))
	lt := ((la - lb) >> 31) & 1
	gt := ((lb - la) >> 31) & 1
	res += (gt - lt) * (1 ^ decided)

	return int(res)
}

// Xor returns a XOR b. The inputs must have equal length.
// Xor(a, a) is the all-zero buffer; Xor(Xor(a, b), b) == a.
func Xor(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, qerrors.NewCryptoError("ctops.Xor", qerrors.ErrInvalidKeySize)
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// And returns a AND b. The inputs must have equal length.
func And(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, qerrors.NewCryptoError("ctops.And", qerrors.ErrInvalidKeySize)
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] & b[i]
	}
	return out, nil
}

// Or returns a OR b. The inputs must have equal length.
func Or(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, qerrors.NewCryptoError("ctops.Or", qerrors.ErrInvalidKeySize)
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] | b[i]
	}
	return out, nil
}

// mask returns 0xFF if choice is 1 and 0x00 if choice is 0.
func mask(choice int) byte {
	return byte(-(choice & 1))
}

// SelectByte returns a if choice is 1 and b if choice is 0, branchlessly.
func SelectByte(choice int, a, b byte) byte {
	m := mask(choice)
	return (a & m) | (b &^ m)
}

// SelectUint32 returns a if choice is 1 and b if choice is 0, branchlessly.
func SelectUint32(choice int, a, b uint32) uint32 {
	m := uint32(int32(-(choice & 1)))
	return (a & m) | (b &^ m)
}

// Select returns a copy of a if choice is 1 and a copy of b if choice is 0.
// The inputs must have equal length; both are always read in full.
func Select(choice int, a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, qerrors.NewCryptoError("ctops.Select", qerrors.ErrInvalidKeySize)
	}
	m := mask(choice)
	out := make([]byte, len(a))
	for i := range a {
		out[i] = (a[i] & m) | (b[i] &^ m)
	}
	return out, nil
}

// CopyIf copies src into dst when choice is 1 and leaves dst unchanged
// when choice is 0. Both buffers are always read and written in full.
// The buffers must have equal length.
func CopyIf(choice int, dst, src []byte) error {
	if len(dst) != len(src) {
		return qerrors.NewCryptoError("ctops.CopyIf", qerrors.ErrInvalidKeySize)
	}
	m := mask(choice)
	for i := range dst {
		dst[i] = (src[i] & m) | (dst[i] &^ m)
	}
	return nil
}
