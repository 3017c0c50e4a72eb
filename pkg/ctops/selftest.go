// selftest.go implements the start-up validation of the constant-time
// primitives.
//
// IMPORTANT: this is production code, not test code. The self-test runs at
// package load (and can be re-queried at any time) to verify that every
// primitive produces expected outputs against known vectors before any
// cryptographic operation is performed. This catches corrupted binaries,
// miscompilation of the bitmask arithmetic, and tampered code.

package ctops

import (
	"fmt"
	"sync"
)

// SelfTestResult contains the results of the primitive self-test.
type SelfTestResult struct {
	Passed bool
	Errors []string
}

var (
	selfTestResult *SelfTestResult
	selfTestOnce   sync.Once
)

// SelfTest runs the known-vector validation of every primitive in this
// package and returns a single pass/fail boolean. It is safe to call from
// multiple goroutines; the checks run once and the result is cached.
func SelfTest() bool {
	return RunSelfTest().Passed
}

// RunSelfTest executes the self-test and returns the detailed result.
func RunSelfTest() *SelfTestResult {
	selfTestOnce.Do(func() {
		r := &SelfTestResult{Passed: true}
		fail := func(format string, args ...interface{}) {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
		}

		checkEqual(fail)
		checkZeroAndCompare(fail)
		checkBitwise(fail)
		checkSelect(fail)
		checkZeroize(fail)
		checkHardenedRandom(fail)

		selfTestResult = r
	})
	return selfTestResult
}

func checkEqual(fail func(string, ...interface{})) {
	a := []byte{0x00, 0x7f, 0x80, 0xff}
	b := []byte{0x00, 0x7f, 0x80, 0xff}
	c := []byte{0x00, 0x7f, 0x80, 0xfe}

	if !Equal(a, b) {
		fail("Equal: identical inputs reported unequal")
	}
	if Equal(a, c) {
		fail("Equal: single trailing-byte difference not detected")
	}
	if Equal(a, a[:3]) {
		fail("Equal: length mismatch reported equal")
	}
	if !Equal(nil, nil) || !Equal([]byte{}, nil) {
		fail("Equal: empty inputs reported unequal")
	}
	if !EqualString("correct horse", "correct horse") || EqualString("a", "b") {
		fail("EqualString: known vectors failed")
	}
}

func checkZeroAndCompare(fail func(string, ...interface{})) {
	if !IsZero([]byte{0, 0, 0}) || IsZero([]byte{0, 1, 0}) || !IsZero(nil) {
		fail("IsZero: known vectors failed")
	}

	cases := []struct {
		a, b []byte
		want int
	}{
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, 0},
		{[]byte{1, 2, 2}, []byte{1, 2, 3}, -1},
		{[]byte{1, 3, 0}, []byte{1, 2, 0xff}, 1},
		{[]byte{1, 2}, []byte{1, 2, 0}, -1},
		{[]byte{1, 2, 0}, []byte{1, 2}, 1},
		{nil, nil, 0},
	}
	for i, tc := range cases {
		if got := Compare(tc.a, tc.b); got != tc.want {
			fail("Compare: vector %d got %d want %d", i, got, tc.want)
		}
	}
}

func checkBitwise(fail func(string, ...interface{})) {
	a := []byte{0xf0, 0x0f, 0xaa}
	b := []byte{0xff, 0x00, 0x55}

	x, err := Xor(a, b)
	if err != nil || !Equal(x, []byte{0x0f, 0x0f, 0xff}) {
		fail("Xor: known vector failed")
	}
	if x, _ := Xor(a, a); !IsZero(x) {
		fail("Xor: a XOR a is not zero")
	}
	if y, _ := Xor(x, b); !Equal(y, a) {
		fail("Xor: involution property failed")
	}

	if v, err := And(a, b); err != nil || !Equal(v, []byte{0xf0, 0x00, 0x00}) {
		fail("And: known vector failed")
	}
	if v, err := Or(a, b); err != nil || !Equal(v, []byte{0xff, 0x0f, 0xff}) {
		fail("Or: known vector failed")
	}
	if _, err := Xor(a, b[:2]); err == nil {
		fail("Xor: length mismatch not rejected")
	}
}

func checkSelect(fail func(string, ...interface{})) {
	a := []byte{1, 2, 3}
	b := []byte{9, 8, 7}

	if v, err := Select(1, a, b); err != nil || !Equal(v, a) {
		fail("Select: choice=1 did not return first input")
	}
	if v, err := Select(0, a, b); err != nil || !Equal(v, b) {
		fail("Select: choice=0 did not return second input")
	}
	if SelectByte(1, 0xaa, 0x55) != 0xaa || SelectByte(0, 0xaa, 0x55) != 0x55 {
		fail("SelectByte: known vectors failed")
	}
	if SelectUint32(1, 7, 9) != 7 || SelectUint32(0, 7, 9) != 9 {
		fail("SelectUint32: known vectors failed")
	}

	dst := []byte{0, 0, 0}
	if err := CopyIf(0, dst, a); err != nil || !IsZero(dst) {
		fail("CopyIf: choice=0 modified destination")
	}
	if err := CopyIf(1, dst, a); err != nil || !Equal(dst, a) {
		fail("CopyIf: choice=1 did not copy source")
	}
}

func checkZeroize(fail func(string, ...interface{})) {
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	Zeroize(buf)
	if !IsZero(buf) {
		fail("Zeroize: buffer not cleared")
	}
}

func checkHardenedRandom(fail func(string, ...interface{})) {
	r1, err := HardenedRandom(32)
	if err != nil || len(r1) != 32 {
		fail("HardenedRandom: 32-byte draw failed")
		return
	}
	r2, err := HardenedRandom(32)
	if err != nil {
		fail("HardenedRandom: second draw failed")
		return
	}
	if Equal(r1, r2) {
		fail("HardenedRandom: consecutive draws identical")
	}
	if IsZero(r1) {
		fail("HardenedRandom: all-zero output")
	}
	if short, err := HardenedRandom(16); err != nil || len(short) != 16 {
		fail("HardenedRandom: truncation to 16 bytes failed")
	}
	if _, err := HardenedRandom(33); err == nil {
		fail("HardenedRandom: oversized request not rejected")
	}
	if _, err := HardenedRandom(0); err == nil {
		fail("HardenedRandom: zero-length request not rejected")
	}
}

// init runs the self-test automatically when the package is loaded.
func init() {
	RunSelfTest()
}
