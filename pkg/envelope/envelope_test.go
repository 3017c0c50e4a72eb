package envelope_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/custody"
	"github.com/medvault-labs/sealkit/pkg/envelope"
	"github.com/medvault-labs/sealkit/pkg/kem"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, constants.SymmetricKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

// Seal then Open must recover the exact plaintext under both suites.
func TestSymmetricRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("sensitive medical information")

	for _, suite := range []constants.CipherSuite{
		constants.CipherSuiteAES256GCM,
		constants.CipherSuiteChaCha20Poly1305,
	} {
		env, err := envelope.SealWithSuite(key, plaintext, suite)
		if err != nil {
			t.Fatalf("%v: seal failed: %v", suite, err)
		}
		if len(env.Nonce) != constants.NonceSize {
			t.Errorf("%v: nonce length = %d, want %d", suite, len(env.Nonce), constants.NonceSize)
		}
		if len(env.AuthTag) != constants.AuthTagSize {
			t.Errorf("%v: tag length = %d, want %d", suite, len(env.AuthTag), constants.AuthTagSize)
		}
		if bytes.Contains(env.Ciphertext, plaintext) {
			t.Errorf("%v: ciphertext contains plaintext", suite)
		}

		recovered, err := envelope.Open(key, env)
		if err != nil {
			t.Fatalf("%v: open failed: %v", suite, err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("%v: round trip mismatch", suite)
		}
	}
}

// Two seals of the same plaintext must use distinct nonces and produce
// distinct ciphertexts.
func TestSymmetricFreshNonces(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same input twice")

	a, err := envelope.Seal(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	b, err := envelope.Seal(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Nonce, b.Nonce) {
		t.Error("nonce reused across seals")
	}
	if bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Error("identical ciphertext for repeated seal")
	}
}

// Flipping any single byte of ciphertext, nonce, or tag must fail with
// AuthenticationFailed and never yield plaintext.
func TestSymmetricTamperDetection(t *testing.T) {
	key := testKey(t)
	env, err := envelope.Seal(key, []byte("compliance document, do not alter"))
	if err != nil {
		t.Fatal(err)
	}

	fields := map[string][]byte{
		"ciphertext": env.Ciphertext,
		"nonce":      env.Nonce,
		"authTag":    env.AuthTag,
	}
	for name, field := range fields {
		for i := range field {
			field[i] ^= 0x01
			plaintext, err := envelope.Open(key, env)
			field[i] ^= 0x01

			if !errors.Is(err, qerrors.ErrAuthenticationFailed) {
				t.Fatalf("tampered %s[%d]: got err %v, want AuthenticationFailed", name, i, err)
			}
			if plaintext != nil {
				t.Fatalf("tampered %s[%d]: plaintext returned on failure", name, i)
			}
		}
	}
}

// Opening with the wrong key fails with AuthenticationFailed, not a
// distinguishable error.
func TestSymmetricWrongKey(t *testing.T) {
	key := testKey(t)
	env, err := envelope.Seal(key, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	wrong := testKey(t)
	wrong[0] ^= 0xFF
	if _, err := envelope.Open(wrong, env); !errors.Is(err, qerrors.ErrAuthenticationFailed) {
		t.Errorf("got %v, want AuthenticationFailed", err)
	}
}

// Seal and Open reject keys that are not exactly 32 bytes.
func TestSymmetricKeySizeValidation(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := envelope.Seal(make([]byte, n), []byte("x")); !errors.Is(err, qerrors.ErrInvalidKeySize) {
			t.Errorf("key size %d: got %v, want InvalidKeySize", n, err)
		}
	}
}

// SplitSecret then ReconstructSecret is the identity; each share differs
// from the secret and a missing share is fatal.
func TestSecretSplit(t *testing.T) {
	secret := testKey(t)

	s1, s2, err := envelope.SplitSecret(secret)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(s1.Bytes, secret) || bytes.Equal(s2.Bytes, secret) {
		t.Error("a share equals the secret")
	}

	recovered, err := envelope.ReconstructSecret(s1, s2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, secret) {
		t.Error("reconstruction mismatch")
	}

	if _, err := envelope.ReconstructSecret(s1, nil); !errors.Is(err, qerrors.ErrShareMissing) {
		t.Errorf("nil share: got %v, want ShareMissing", err)
	}
	if _, err := envelope.ReconstructSecret(nil, s2); !errors.Is(err, qerrors.ErrShareMissing) {
		t.Errorf("nil share: got %v, want ShareMissing", err)
	}
	if _, err := envelope.ReconstructSecret(s1, &envelope.SecretShare{Index: 2}); !errors.Is(err, qerrors.ErrShareMissing) {
		t.Errorf("empty share: got %v, want ShareMissing", err)
	}
}

// QuantumSafe envelopes round trip under the matching key pair.
func TestQuantumSafeRoundTrip(t *testing.T) {
	k := kem.NewSimulated()
	kp, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte("sensitive medical information")
	env, err := envelope.CreateQuantumSafe(k, plaintext, kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if env.KeyID != kp.KeyID {
		t.Errorf("envelope key ID = %q, want %q", env.KeyID, kp.KeyID)
	}
	if env.AlgorithmVersion != constants.AlgorithmVersionQuantumSafe {
		t.Errorf("algorithm version = %q", env.AlgorithmVersion)
	}
	if env.ID == "" {
		t.Error("empty envelope ID")
	}

	recovered, err := envelope.OpenQuantumSafe(k, env, kp.PrivateKey, kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("round trip mismatch")
	}
}

// A different key pair's keyId must fail with KeyMismatch before any
// decapsulation is attempted.
func TestQuantumSafeKeyMismatch(t *testing.T) {
	k := kem.NewSimulated()
	kp, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	other, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	env, err := envelope.CreateQuantumSafe(k, []byte("payload"), kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := envelope.OpenQuantumSafe(k, env, other.PrivateKey, other.PublicKey); !errors.Is(err, qerrors.ErrKeyMismatch) {
		t.Errorf("got %v, want KeyMismatch", err)
	}
}

// Tampering a QuantumSafe envelope's payload or KEM ciphertext fails
// authentication.
func TestQuantumSafeTamperDetection(t *testing.T) {
	k := kem.NewSimulated()
	kp, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	env, err := envelope.CreateQuantumSafe(k, []byte("payload"), kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	env.EncryptedData[0] ^= 0x01
	if _, err := envelope.OpenQuantumSafe(k, env, kp.PrivateKey, kp.PublicKey); !errors.Is(err, qerrors.ErrAuthenticationFailed) {
		t.Errorf("payload tamper: got %v, want AuthenticationFailed", err)
	}
	env.EncryptedData[0] ^= 0x01

	env.KEMCiphertext[0] ^= 0x01
	if _, err := envelope.OpenQuantumSafe(k, env, kp.PrivateKey, kp.PublicKey); !errors.Is(err, qerrors.ErrAuthenticationFailed) {
		t.Errorf("kem ciphertext tamper: got %v, want AuthenticationFailed", err)
	}
}

func newDualKeyFixture(t *testing.T) (*envelope.DualKeySealer, *kem.KeyPair) {
	t.Helper()
	fake, err := custody.NewFake()
	if err != nil {
		t.Fatal(err)
	}
	k := kem.NewSimulated()
	kp, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	return envelope.NewDualKeySealer(k, fake), kp
}

// Dual-key envelopes round trip when both unwrap paths succeed.
func TestDualKeyRoundTrip(t *testing.T) {
	sealer, kp := newDualKeyFixture(t)
	plaintext := []byte("record requiring dual custody")

	env, err := sealer.Create(context.Background(), plaintext, kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := envelope.VerifyIntegrity(env); err != nil {
		t.Fatalf("integrity check failed on fresh envelope: %v", err)
	}
	if env.CustodyKeyPath == "" || env.CustodyKeyVersion == "" {
		t.Error("custody key identity missing from envelope")
	}

	recovered, err := sealer.Open(context.Background(), env, kp.PrivateKey, kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("round trip mismatch")
	}
}

// Corrupting either wrapped share must make the whole open fail; there
// is no partial recovery.
func TestDualKeyEitherPathFatal(t *testing.T) {
	sealer, kp := newDualKeyFixture(t)

	env, err := sealer.Create(context.Background(), []byte("payload"), kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the custody path.
	saved := env.CustodyWrappedShare
	env.CustodyWrappedShare = strings.Repeat("A", len(saved))
	if _, err := sealer.Open(context.Background(), env, kp.PrivateKey, kp.PublicKey); err == nil {
		t.Fatal("open succeeded with corrupt custody share")
	}
	env.CustodyWrappedShare = saved

	// Corrupt the KEM path: flip a bit inside the masked share segment.
	ct, masked, err := envelope.ParseKEMWrappedShare(env.KEMWrappedShare)
	if err != nil {
		t.Fatal(err)
	}
	masked[0] ^= 0x01
	env.KEMWrappedShare, err = envelope.EncodeKEMWrappedShare(ct, masked)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sealer.Open(context.Background(), env, kp.PrivateKey, kp.PublicKey); !errors.Is(err, qerrors.ErrAuthenticationFailed) {
		t.Errorf("corrupt kem share: got %v, want AuthenticationFailed", err)
	}
}

// Opening a dual-key envelope with the wrong KEM pair fails with
// KeyMismatch before the custody round trip.
func TestDualKeyKeyMismatch(t *testing.T) {
	sealer, kp := newDualKeyFixture(t)
	k := kem.NewSimulated()
	other, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	env, err := sealer.Create(context.Background(), []byte("payload"), kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sealer.Open(context.Background(), env, other.PrivateKey, other.PublicKey); !errors.Is(err, qerrors.ErrKeyMismatch) {
		t.Errorf("got %v, want KeyMismatch", err)
	}
}

// The wire format requires exactly two base64 segments of the right sizes.
func TestKEMWrappedShareWireFormat(t *testing.T) {
	ct := make([]byte, constants.KEMCiphertextSize)
	masked := make([]byte, constants.SymmetricKeySize)

	wire, err := envelope.EncodeKEMWrappedShare(ct, masked)
	if err != nil {
		t.Fatal(err)
	}
	gotCT, gotMasked, err := envelope.ParseKEMWrappedShare(wire)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotCT, ct) || !bytes.Equal(gotMasked, masked) {
		t.Error("wire round trip mismatch")
	}

	rejects := []string{
		"",
		"onlyonesegment",
		wire + ":extra",
		":" + wire,
		"!!!not-base64!!!:" + strings.Split(wire, ":")[1],
		strings.Split(wire, ":")[0] + ":!!!not-base64!!!",
	}
	for _, bad := range rejects {
		if _, _, err := envelope.ParseKEMWrappedShare(bad); err == nil {
			t.Errorf("parse accepted %q", bad)
		}
	}

	// Wrong component sizes.
	if _, err := envelope.EncodeKEMWrappedShare(ct[:10], masked); !errors.Is(err, qerrors.ErrInvalidCiphertextLength) {
		t.Errorf("short ciphertext: got %v, want InvalidCiphertextLength", err)
	}
	if _, err := envelope.EncodeKEMWrappedShare(ct, masked[:10]); !errors.Is(err, qerrors.ErrInvalidFormat) {
		t.Errorf("short share: got %v, want InvalidFormat", err)
	}
}

// VerifyIntegrity flags structurally incomplete envelopes without
// needing any key material.
func TestVerifyIntegrity(t *testing.T) {
	sealer, kp := newDualKeyFixture(t)
	env, err := sealer.Create(context.Background(), []byte("payload"), kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	if err := envelope.VerifyIntegrity(nil); !errors.Is(err, qerrors.ErrIncompleteEnvelope) {
		t.Errorf("nil envelope: got %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(e *envelope.DualKeyEnvelope)
	}{
		{"missing id", func(e *envelope.DualKeyEnvelope) { e.ID = "" }},
		{"missing kem key id", func(e *envelope.DualKeyEnvelope) { e.KEMKeyID = "" }},
		{"missing custody share", func(e *envelope.DualKeyEnvelope) { e.CustodyWrappedShare = "" }},
		{"missing kem share", func(e *envelope.DualKeyEnvelope) { e.KEMWrappedShare = "" }},
		{"bad algorithm version", func(e *envelope.DualKeyEnvelope) { e.AlgorithmVersion = "unknown" }},
		{"short nonce", func(e *envelope.DualKeyEnvelope) { e.Nonce = e.Nonce[:4] }},
		{"short tag", func(e *envelope.DualKeyEnvelope) { e.AuthTag = e.AuthTag[:8] }},
		{"malformed kem share", func(e *envelope.DualKeyEnvelope) { e.KEMWrappedShare = "a:b:c" }},
	}
	for _, m := range mutations {
		broken := *env
		m.mutate(&broken)
		if err := envelope.VerifyIntegrity(&broken); err == nil {
			t.Errorf("%s: integrity check passed", m.name)
		}
	}
}
