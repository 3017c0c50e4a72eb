package envelope

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/ctops"
	"github.com/medvault-labs/sealkit/pkg/custody"
	"github.com/medvault-labs/sealkit/pkg/kem"
	"github.com/medvault-labs/sealkit/pkg/metrics"
)

// DualKeyEnvelope binds a payload to two independent key-wrap paths.
// The 32-byte content key is never stored: it exists only transiently as
// share1 XOR share2 during encrypt and decrypt. Share 1 is wrapped by
// the custody service (RSA-OAEP), share 2 is masked with a KEM shared
// secret. Recovery requires both paths to succeed.
type DualKeyEnvelope struct {
	ID                  string    `json:"id"`
	EncryptedData       []byte    `json:"encryptedData"`
	Nonce               []byte    `json:"nonce"`
	AuthTag             []byte    `json:"authTag"`
	CustodyWrappedShare string    `json:"custodyWrappedShare"`
	KEMWrappedShare     string    `json:"kemWrappedShare"`
	CustodyKeyPath      string    `json:"custodyKeyPath"`
	CustodyKeyVersion   string    `json:"custodyKeyVersion"`
	KEMKeyID            string    `json:"kemKeyId"`
	EncryptedAt         time.Time `json:"encryptedAt"`
	AlgorithmVersion    string    `json:"algorithmVersion"`
}

// DualKeySealer creates and opens dual-key envelopes against one KEM
// implementation and one custody service. Sealers are stateless and safe
// for concurrent use as long as callers do not share input buffers.
type DualKeySealer struct {
	kem       kem.KEM
	custody   custody.Service
	log       zerolog.Logger
	collector *metrics.Collector
	tracer    metrics.Tracer
}

// DualKeyOption configures optional sealer collaborators.
type DualKeyOption func(*DualKeySealer)

// WithLogger attaches a structured logger. Key material never reaches it.
func WithLogger(log zerolog.Logger) DualKeyOption {
	return func(s *DualKeySealer) { s.log = log.With().Str("component", "envelope").Logger() }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) DualKeyOption {
	return func(s *DualKeySealer) { s.collector = c }
}

// WithTracer attaches a tracer.
func WithTracer(t metrics.Tracer) DualKeyOption {
	return func(s *DualKeySealer) { s.tracer = t }
}

// NewDualKeySealer constructs a sealer.
func NewDualKeySealer(k kem.KEM, svc custody.Service, opts ...DualKeyOption) *DualKeySealer {
	s := &DualKeySealer{
		kem:     k,
		custody: svc,
		log:     zerolog.Nop(),
		tracer:  metrics.NoOpTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create encrypts data under a fresh content key wrapped through both
// paths, using the custody service's current key version.
func (s *DualKeySealer) Create(ctx context.Context, data []byte, kemPub *kem.PublicKey) (*DualKeyEnvelope, error) {
	return s.CreateWithKeyVersion(ctx, data, kemPub, "")
}

// CreateWithKeyVersion is Create pinned to a specific custody key version.
func (s *DualKeySealer) CreateWithKeyVersion(ctx context.Context, data []byte, kemPub *kem.PublicKey, custodyVersion string) (*DualKeyEnvelope, error) {
	ctx, endSpan := s.tracer.StartSpan(ctx, metrics.SpanSealDualKey)
	start := time.Now()

	env, err := s.create(ctx, data, kemPub, custodyVersion)
	endSpan(err)

	if s.collector != nil {
		s.collector.ObserveSealLatency(time.Since(start))
		if err != nil {
			s.collector.RecordSealFailure()
		} else {
			s.collector.RecordSeal()
		}
	}
	if err != nil {
		s.log.Error().Err(err).Msg("dual-key seal failed")
		return nil, err
	}
	s.log.Debug().Str("envelope_id", env.ID).Str("custody_key_path", env.CustodyKeyPath).
		Str("kem_key_id", env.KEMKeyID).Msg("dual-key envelope created")
	return env, nil
}

func (s *DualKeySealer) create(ctx context.Context, data []byte, kemPub *kem.PublicKey, custodyVersion string) (*DualKeyEnvelope, error) {
	contentKey, err := newContentKey()
	if err != nil {
		return nil, err
	}
	defer ctops.Zeroize(contentKey)

	payload, err := Seal(contentKey, data)
	if err != nil {
		return nil, err
	}

	share1, share2, err := SplitSecret(contentKey)
	if err != nil {
		return nil, err
	}
	defer share1.Zeroize()
	defer share2.Zeroize()

	// Custody path: wrap share 1 locally under the service's public key.
	keyInfo, err := s.custody.GetPublicKey(ctx, custodyVersion)
	if err != nil {
		return nil, err
	}
	custodyWrapped, err := custody.EncryptShare(keyInfo.PublicKeyPEM, share1.Bytes)
	if err != nil {
		return nil, err
	}

	// KEM path: mask share 2 with a fresh encapsulated secret.
	if s.collector != nil {
		s.collector.RecordKEMOperation()
	}
	enc, err := s.kem.Encapsulate(kemPub)
	if err != nil {
		if s.collector != nil {
			s.collector.RecordKEMFailure()
		}
		return nil, err
	}
	defer ctops.Zeroize(enc.SharedSecret)

	maskedShare, err := ctops.Xor(share2.Bytes, enc.SharedSecret)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.seal_dual_key", err)
	}
	kemWrapped, err := EncodeKEMWrappedShare(enc.Ciphertext, maskedShare)
	if err != nil {
		return nil, err
	}

	return &DualKeyEnvelope{
		ID:                  uuid.NewString(),
		EncryptedData:       payload.Ciphertext,
		Nonce:               payload.Nonce,
		AuthTag:             payload.AuthTag,
		CustodyWrappedShare: custodyWrapped,
		KEMWrappedShare:     kemWrapped,
		CustodyKeyPath:      keyInfo.KeyPath,
		CustodyKeyVersion:   keyInfo.KeyVersion,
		KEMKeyID:            kemPub.KeyID,
		EncryptedAt:         time.Now().UTC(),
		AlgorithmVersion:    constants.AlgorithmVersionDualKey,
	}, nil
}

// Open recovers the payload of env. Both unwrap paths must succeed;
// either path's failure is fatal with no partial decrypt.
func (s *DualKeySealer) Open(ctx context.Context, env *DualKeyEnvelope, kemPriv *kem.PrivateKey, kemPub *kem.PublicKey) ([]byte, error) {
	ctx, endSpan := s.tracer.StartSpan(ctx, metrics.SpanOpenDualKey)
	start := time.Now()

	plaintext, err := s.open(ctx, env, kemPriv, kemPub)
	endSpan(err)

	if s.collector != nil {
		s.collector.ObserveOpenLatency(time.Since(start))
		if err != nil {
			s.collector.RecordOpenFailure()
			if qerrors.Is(err, qerrors.ErrAuthenticationFailed) {
				s.collector.RecordAuthFailure()
			}
		} else {
			s.collector.RecordOpen()
		}
	}
	if err != nil {
		s.log.Error().Err(err).Msg("dual-key open failed")
		return nil, err
	}
	return plaintext, nil
}

func (s *DualKeySealer) open(ctx context.Context, env *DualKeyEnvelope, kemPriv *kem.PrivateKey, kemPub *kem.PublicKey) ([]byte, error) {
	if err := VerifyIntegrity(env); err != nil {
		return nil, err
	}
	if kemPriv == nil || kemPub == nil {
		return nil, qerrors.NewCryptoError("envelope.open_dual_key", qerrors.ErrIncompleteEnvelope)
	}
	if !ctops.EqualString(env.KEMKeyID, kemPriv.KeyID) || !ctops.EqualString(env.KEMKeyID, kemPub.KeyID) {
		return nil, qerrors.NewCryptoError("envelope.open_dual_key", qerrors.ErrKeyMismatch)
	}

	// Custody path.
	share1Bytes, err := s.custody.AsymmetricDecrypt(ctx, env.CustodyWrappedShare, env.CustodyKeyVersion)
	if err != nil {
		return nil, err
	}
	share1 := &SecretShare{Index: 1, Bytes: share1Bytes}
	defer share1.Zeroize()

	// KEM path.
	kemCiphertext, maskedShare, err := ParseKEMWrappedShare(env.KEMWrappedShare)
	if err != nil {
		return nil, err
	}
	if s.collector != nil {
		s.collector.RecordKEMOperation()
	}
	secret, err := s.kem.Decapsulate(kemCiphertext, kemPriv, kemPub)
	if err != nil {
		if s.collector != nil {
			s.collector.RecordKEMFailure()
		}
		return nil, err
	}
	defer ctops.Zeroize(secret)

	share2Bytes, err := ctops.Xor(maskedShare, secret)
	if err != nil {
		return nil, qerrors.NewCryptoError("envelope.open_dual_key", err)
	}
	share2 := &SecretShare{Index: 2, Bytes: share2Bytes}
	defer share2.Zeroize()

	contentKey, err := ReconstructSecret(share1, share2)
	if err != nil {
		return nil, err
	}
	defer ctops.Zeroize(contentKey)

	return Open(contentKey, &SymmetricEnvelope{
		Ciphertext: env.EncryptedData,
		Nonce:      env.Nonce,
		AuthTag:    env.AuthTag,
		Suite:      constants.CipherSuiteAES256GCM,
	})
}
