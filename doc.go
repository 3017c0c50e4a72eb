// Package sealkit provides envelope encryption and key-lifecycle management
// for sensitive records at rest.
//
// Sealkit protects each record with AES-256-GCM under a per-record content
// key, and wraps that content key through one or two independent key-wrap
// paths so that no single primitive's future compromise defeats
// confidentiality:
//
//   - A quantum-safe envelope binds the content key to a post-quantum
//     key-encapsulation mechanism (KEM).
//   - A dual-key envelope XOR-splits the content key into two shares, wraps
//     one through an external key-custody service (RSA-OAEP) and the other
//     through the KEM, and requires both paths to recover the key.
//
// # Quick Start
//
// Sealing a record to a KEM key pair:
//
//	import (
//		"github.com/medvault-labs/sealkit/pkg/envelope"
//		"github.com/medvault-labs/sealkit/pkg/kem"
//	)
//
//	k := kem.NewSimulated()
//	pair, _ := k.GenerateKeyPair()
//	env, _ := envelope.CreateQuantumSafe(k, []byte("sensitive medical information"), pair.PublicKey)
//	plain, _ := envelope.OpenQuantumSafe(k, env, pair.PrivateKey, pair.PublicKey)
//
// Dual-key sealing additionally needs a custody service:
//
//	svc := custody.NewClient(cfg, log)
//	sealer := envelope.NewDualKeySealer(k, svc)
//	env, _ := sealer.Create(ctx, data, pair.PublicKey)
//	plain, _ := sealer.Open(ctx, env, pair.PrivateKey, pair.PublicKey)
//
// # Package Structure
//
//   - pkg/ctops: constant-time comparison, selection, XOR, zeroing and a
//     hardened random generator, with a start-up self-test
//   - pkg/kem: the KEM abstraction, a deterministic stand-in
//     implementation and an ML-KEM-768 implementation (cloudflare/circl)
//   - pkg/envelope: symmetric, quantum-safe and dual-key envelopes
//   - pkg/passkey: Argon2id passphrase key derivation and verification
//   - pkg/custody: the external key-custody service contract, an HTTP
//     client and an in-memory fake for tests
//   - pkg/rotation: rotation scheduling, health checks and compliance
//     reports for the custody key
//   - pkg/metrics: counters, histograms, Prometheus export and optional
//     OpenTelemetry tracing
//   - internal/constants: size and algorithm constants
//   - internal/errors: the error taxonomy shared by all packages
//
// # Security Properties
//
//   - Content keys exist only transiently; they are zeroized after use and
//     never stored inside an envelope.
//   - The dual-key XOR split is a two-of-two one-time pad: either share
//     alone reveals nothing about the content key.
//   - A failed authentication tag invalidates an entire envelope; no
//     partial plaintext is ever returned.
//   - All comparisons involving key material go through pkg/ctops.
//
// The bundled simulated KEM satisfies the interface contract (sizes,
// round-trip, key-mismatch detection) but NOT the security contract; see
// the pkg/kem documentation before deploying.
package sealkit
