package custody

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	qerrors "github.com/medvault-labs/sealkit/internal/errors"
)

// Fake is an in-memory custody service backed by real RSA key pairs.
// It implements Service and is intended for tests and local development;
// private keys live in process memory and are never persisted.
type Fake struct {
	mu         sync.RWMutex
	project    string
	keyRing    string
	keyName    string
	versions   []fakeVersion
	autoPeriod int
	now        func() time.Time
}

type fakeVersion struct {
	number    int
	key       *rsa.PrivateKey
	createdAt time.Time
	state     string
}

// NewFake creates a fake custody service with one enabled key version.
func NewFake() (*Fake, error) {
	f := &Fake{
		project: "local-project",
		keyRing: "local-ring",
		keyName: "envelope-custody",
		now:     time.Now,
	}
	if _, err := f.Rotate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Rotate creates and enables a new key version, retiring none. It returns
// the new version's resource path.
func (f *Fake) Rotate() (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", qerrors.NewCustodyError("Rotate", err, false)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v := fakeVersion{
		number:    len(f.versions) + 1,
		key:       key,
		createdAt: f.now(),
		state:     "ENABLED",
	}
	f.versions = append(f.versions, v)
	return f.versionPath(v.number), nil
}

// SetClock overrides the fake's time source for rotation-age tests.
func (f *Fake) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// GetPublicKey implements Service. An empty version selects the newest.
func (f *Fake) GetPublicKey(_ context.Context, version string) (*PublicKeyInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, err := f.lookup(version)
	if err != nil {
		return nil, err
	}

	der, err := x509.MarshalPKIXPublicKey(&v.key.PublicKey)
	if err != nil {
		return nil, qerrors.NewCustodyError("GetPublicKey", err, false)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return &PublicKeyInfo{
		PublicKeyPEM: string(pemBytes),
		KeyPath:      f.versionPath(v.number),
		KeyVersion:   fmt.Sprintf("%d", v.number),
		Algorithm:    "RSA_DECRYPT_OAEP_2048_SHA256",
	}, nil
}

// AsymmetricDecrypt implements Service.
func (f *Fake) AsymmetricDecrypt(_ context.Context, ciphertextB64 string, version string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, err := f.lookup(version)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, qerrors.NewCustodyError("AsymmetricDecrypt", err, false)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, v.key, ciphertext, nil)
	if err != nil {
		return nil, qerrors.NewCustodyError("AsymmetricDecrypt", err, false)
	}
	return plaintext, nil
}

// ListKeyVersions implements Service, newest first.
func (f *Fake) ListKeyVersions(_ context.Context) ([]KeyVersion, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]KeyVersion, 0, len(f.versions))
	for i := len(f.versions) - 1; i >= 0; i-- {
		v := f.versions[i]
		out = append(out, KeyVersion{
			Path:      f.versionPath(v.number),
			CreatedAt: v.createdAt,
			State:     v.state,
		})
	}
	return out, nil
}

// EnableAutoRotation implements Service.
func (f *Fake) EnableAutoRotation(_ context.Context, periodDays int) error {
	if periodDays <= 0 {
		return qerrors.NewCustodyError("EnableAutoRotation",
			fmt.Errorf("invalid rotation period %d", periodDays), false)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoPeriod = periodDays
	return nil
}

// AutoRotationPeriod reports the configured period in days, zero if unset.
func (f *Fake) AutoRotationPeriod() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.autoPeriod
}

// lookup resolves a version selector under a held lock. Accepts a bare
// version number, a full resource path, or "" for the newest version.
func (f *Fake) lookup(version string) (fakeVersion, error) {
	if len(f.versions) == 0 {
		return fakeVersion{}, qerrors.NewCustodyError("lookup", errors.New("no key versions"), false)
	}
	if version == "" {
		return f.versions[len(f.versions)-1], nil
	}
	for _, v := range f.versions {
		if version == fmt.Sprintf("%d", v.number) || version == f.versionPath(v.number) {
			return v, nil
		}
	}
	return fakeVersion{}, qerrors.NewCustodyError("lookup",
		fmt.Errorf("unknown key version %q", version), false)
}

func (f *Fake) versionPath(number int) string {
	return fmt.Sprintf("projects/%s/locations/global/keyRings/%s/cryptoKeys/%s/cryptoKeyVersions/%d",
		f.project, f.keyRing, f.keyName, number)
}
