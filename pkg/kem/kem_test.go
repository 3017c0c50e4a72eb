package kem_test

import (
	"testing"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
	"github.com/medvault-labs/sealkit/pkg/kem"
)

// implementations returns every KEM implementation under test.
func implementations() map[string]kem.KEM {
	return map[string]kem.KEM{
		"simulated":  kem.NewSimulated(),
		"ml-kem-768": kem.NewMLKEM(),
	}
}

// TestGenerateKeyPairSizes verifies exact key sizes and a consistent pair.
func TestGenerateKeyPairSizes(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			pair, err := k.GenerateKeyPair()
			if err != nil {
				t.Fatalf("GenerateKeyPair failed: %v", err)
			}
			if len(pair.PublicKey.Bytes) != constants.KEMPublicKeySize {
				t.Errorf("public key size = %d, want %d", len(pair.PublicKey.Bytes), constants.KEMPublicKeySize)
			}
			if len(pair.PrivateKey.Bytes) != constants.KEMPrivateKeySize {
				t.Errorf("private key size = %d, want %d", len(pair.PrivateKey.Bytes), constants.KEMPrivateKeySize)
			}
			if len(pair.KeyID) != 2*constants.KeyIDSize {
				t.Errorf("key ID length = %d hex chars, want %d", len(pair.KeyID), 2*constants.KeyIDSize)
			}
			if err := pair.Validate(); err != nil {
				t.Errorf("Validate failed on a fresh pair: %v", err)
			}
			if pair.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
		})
	}
}

// TestEncapsulateDecapsulateRoundTrip verifies the shared secret round-trips.
func TestEncapsulateDecapsulateRoundTrip(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			pair, err := k.GenerateKeyPair()
			if err != nil {
				t.Fatalf("GenerateKeyPair failed: %v", err)
			}

			enc, err := k.Encapsulate(pair.PublicKey)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}
			if len(enc.Ciphertext) != constants.KEMCiphertextSize {
				t.Errorf("ciphertext size = %d, want %d", len(enc.Ciphertext), constants.KEMCiphertextSize)
			}
			if len(enc.SharedSecret) != constants.KEMSharedSecretSize {
				t.Errorf("shared secret size = %d, want %d", len(enc.SharedSecret), constants.KEMSharedSecretSize)
			}

			recovered, err := k.Decapsulate(enc.Ciphertext, pair.PrivateKey, pair.PublicKey)
			if err != nil {
				t.Fatalf("Decapsulate failed: %v", err)
			}
			if !ctops.Equal(recovered, enc.SharedSecret) {
				t.Error("decapsulated secret differs from encapsulated secret")
			}
		})
	}
}

// TestEncapsulationsAreFresh verifies that two encapsulations to the same
// key produce distinct ciphertexts and secrets.
func TestEncapsulationsAreFresh(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			pair, _ := k.GenerateKeyPair()
			e1, err := k.Encapsulate(pair.PublicKey)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}
			e2, err := k.Encapsulate(pair.PublicKey)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}
			if ctops.Equal(e1.SharedSecret, e2.SharedSecret) {
				t.Error("two encapsulations produced the same shared secret")
			}
			if ctops.Equal(e1.Ciphertext, e2.Ciphertext) {
				t.Error("two encapsulations produced the same ciphertext")
			}
		})
	}
}

// TestDecapsulateWrongPairYieldsDifferentSecret verifies the
// indistinguishable-failure property: a consistent but wrong key pair
// returns a different value, never an error.
func TestDecapsulateWrongPairYieldsDifferentSecret(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			alice, _ := k.GenerateKeyPair()
			mallory, _ := k.GenerateKeyPair()

			enc, err := k.Encapsulate(alice.PublicKey)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}

			wrong, err := k.Decapsulate(enc.Ciphertext, mallory.PrivateKey, mallory.PublicKey)
			if err != nil {
				t.Fatalf("Decapsulate with wrong pair should not error, got: %v", err)
			}
			if ctops.Equal(wrong, enc.SharedSecret) {
				t.Error("wrong key pair recovered the real shared secret")
			}
		})
	}
}

// TestDecapsulateKeyMismatch verifies mixed halves of different pairs fail
// with ErrKeyMismatch before any decapsulation.
func TestDecapsulateKeyMismatch(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			alice, _ := k.GenerateKeyPair()
			bob, _ := k.GenerateKeyPair()

			enc, _ := k.Encapsulate(alice.PublicKey)
			_, err := k.Decapsulate(enc.Ciphertext, bob.PrivateKey, alice.PublicKey)
			if !qerrors.Is(err, qerrors.ErrKeyMismatch) {
				t.Errorf("want ErrKeyMismatch, got %v", err)
			}
		})
	}
}

// TestDecapsulateInvalidCiphertextLength verifies malformed ciphertexts
// are rejected.
func TestDecapsulateInvalidCiphertextLength(t *testing.T) {
	for name, k := range implementations() {
		t.Run(name, func(t *testing.T) {
			pair, _ := k.GenerateKeyPair()
			for _, n := range []int{0, 1, constants.KEMCiphertextSize - 1, constants.KEMCiphertextSize + 1} {
				_, err := k.Decapsulate(make([]byte, n), pair.PrivateKey, pair.PublicKey)
				if !qerrors.Is(err, qerrors.ErrInvalidCiphertextLength) {
					t.Errorf("length %d: want ErrInvalidCiphertextLength, got %v", n, err)
				}
			}
		})
	}
}

// TestKeyPairValidateRejectsMixedHalves verifies the shared-identifier invariant.
func TestKeyPairValidateRejectsMixedHalves(t *testing.T) {
	k := kem.NewSimulated()
	a, _ := k.GenerateKeyPair()
	b, _ := k.GenerateKeyPair()

	frankenPair := &kem.KeyPair{
		PublicKey:  a.PublicKey,
		PrivateKey: b.PrivateKey,
		KeyID:      a.KeyID,
		CreatedAt:  a.CreatedAt,
	}
	if err := frankenPair.Validate(); !qerrors.Is(err, qerrors.ErrInvalidKeyPair) {
		t.Errorf("want ErrInvalidKeyPair for mixed halves, got %v", err)
	}

	if err := (&kem.KeyPair{}).Validate(); err == nil {
		t.Error("empty pair passed validation")
	}
}

// TestSimulatedEmbeddedID verifies the identifier embedded in simulated
// key bytes matches the pair's KeyID.
func TestSimulatedEmbeddedID(t *testing.T) {
	sim := kem.NewSimulated()
	pair, err := sim.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if err := sim.ValidateEmbeddedID(pair); err != nil {
		t.Errorf("embedded ID validation failed on a fresh pair: %v", err)
	}

	// Corrupt the embedded identifier in the private half.
	pair.PrivateKey.Bytes[0] ^= 0xff
	if err := sim.ValidateEmbeddedID(pair); err == nil {
		t.Error("corrupted embedded ID passed validation")
	}
}

// TestKeyPairZeroize verifies private material is cleared.
func TestKeyPairZeroize(t *testing.T) {
	k := kem.NewSimulated()
	pair, _ := k.GenerateKeyPair()
	privBytes := pair.PrivateKey.Bytes

	pair.Zeroize()
	if !ctops.IsZero(privBytes) {
		t.Error("private key bytes not zeroized")
	}
	if pair.PrivateKey != nil || pair.PublicKey != nil {
		t.Error("key references not dropped")
	}
}
