// client.go implements the HTTP client for the custody service.
//
// The client is the only network-bound component in the core. Every call
// is context-aware and cancellable; transient failures (transport errors,
// 5xx, 429) are retried with backoff and, when retries are exhausted,
// surfaced as retryable CustodyError values. 4xx responses are caller
// errors and are not retried.

package custody

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/medvault-labs/sealkit/internal/constants"
	qerrors "github.com/medvault-labs/sealkit/internal/errors"
	"github.com/medvault-labs/sealkit/pkg/metrics"
)

// ClientConfig configures the custody HTTP client.
type ClientConfig struct {
	// BaseURL is the custody service endpoint, e.g. "https://kms.internal:8443".
	BaseURL string

	// Timeout bounds a single round trip including retries.
	Timeout time.Duration

	// RetryCount is the number of retries for transient failures.
	RetryCount int

	// RetryWaitTime is the initial backoff between retries.
	RetryWaitTime time.Duration

	// CacheTTL bounds how long public-key responses are cached.
	// Zero disables the cache.
	CacheTTL time.Duration

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string
}

// ClientOption configures optional client collaborators.
type ClientOption func(*Client)

// WithCollector attaches a metrics collector to the client.
func WithCollector(c *metrics.Collector) ClientOption {
	return func(cl *Client) { cl.collector = c }
}

// WithTracer attaches a tracer; each custody round trip becomes a span.
func WithTracer(t metrics.Tracer) ClientOption {
	return func(cl *Client) { cl.tracer = t }
}

// Client is the HTTP implementation of Service.
type Client struct {
	http      *resty.Client
	cache     *publicKeyCache
	log       zerolog.Logger
	collector *metrics.Collector
	tracer    metrics.Tracer
}

// NewClient constructs a custody client. The logger is used for round-trip
// diagnostics only; key material never reaches it.
func NewClient(cfg ClientConfig, log zerolog.Logger, opts ...ClientOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	if cfg.RetryWaitTime <= 0 {
		cfg.RetryWaitTime = 500 * time.Millisecond
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = constants.DefaultPublicKeyCacheTTLSeconds * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError ||
				r.StatusCode() == http.StatusTooManyRequests
		})
	if cfg.AuthToken != "" {
		httpClient.SetAuthToken(cfg.AuthToken)
	}

	c := &Client{
		http:   httpClient,
		cache:  newPublicKeyCache(cfg.CacheTTL),
		log:    log.With().Str("component", "custody").Logger(),
		tracer: metrics.NoOpTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPublicKey implements Service.
func (c *Client) GetPublicKey(ctx context.Context, version string) (*PublicKeyInfo, error) {
	if info, ok := c.cache.get(version); ok {
		return info, nil
	}

	var info PublicKeyInfo
	err := c.roundTrip(ctx, "GetPublicKey", func(r *resty.Request) (*resty.Response, error) {
		if version != "" {
			r.SetQueryParam("version", version)
		}
		return r.SetResult(&info).Get("/v1/custody/public-key")
	})
	if err != nil {
		return nil, err
	}
	if info.PublicKeyPEM == "" || info.KeyPath == "" {
		return nil, qerrors.NewCustodyError("GetPublicKey", errors.New("incomplete response"), false)
	}

	c.cache.put(version, &info)
	return &info, nil
}

type decryptRequest struct {
	Ciphertext string `json:"ciphertext"`
	Version    string `json:"version,omitempty"`
}

type decryptResponse struct {
	Plaintext string `json:"plaintext"`
}

// AsymmetricDecrypt implements Service.
func (c *Client) AsymmetricDecrypt(ctx context.Context, ciphertextB64 string, version string) ([]byte, error) {
	var out decryptResponse
	err := c.roundTrip(ctx, "AsymmetricDecrypt", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetBody(decryptRequest{Ciphertext: ciphertextB64, Version: version}).
			SetResult(&out).
			Post("/v1/custody/decrypt")
	})
	if err != nil {
		return nil, err
	}

	plaintext, decodeErr := base64.StdEncoding.DecodeString(out.Plaintext)
	if decodeErr != nil {
		return nil, qerrors.NewCustodyError("AsymmetricDecrypt", decodeErr, false)
	}
	return plaintext, nil
}

type versionsResponse struct {
	Versions []KeyVersion `json:"versions"`
}

// ListKeyVersions implements Service.
func (c *Client) ListKeyVersions(ctx context.Context) ([]KeyVersion, error) {
	var out versionsResponse
	err := c.roundTrip(ctx, "ListKeyVersions", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/v1/custody/versions")
	})
	if err != nil {
		return nil, err
	}
	return out.Versions, nil
}

type rotationRequest struct {
	PeriodDays int `json:"periodDays"`
}

// EnableAutoRotation implements Service. The public-key cache is
// invalidated on success, since the current version may change.
func (c *Client) EnableAutoRotation(ctx context.Context, periodDays int) error {
	err := c.roundTrip(ctx, "EnableAutoRotation", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(rotationRequest{PeriodDays: periodDays}).Post("/v1/custody/rotation")
	})
	if err != nil {
		return err
	}
	c.cache.invalidateAll()
	return nil
}

// InvalidateCache drops the cached public-key entry for one version, or
// every entry when version is empty. Call after an observed rotation.
func (c *Client) InvalidateCache(version string) {
	if version == "" {
		c.cache.invalidateAll()
		return
	}
	c.cache.invalidate(version)
}

// roundTrip runs one custody request with tracing, metrics and error
// classification applied uniformly.
func (c *Client) roundTrip(ctx context.Context, op string, do func(*resty.Request) (*resty.Response, error)) error {
	ctx, endSpan := c.tracer.StartSpan(ctx, "custody."+op,
		metrics.WithSpanKind(metrics.SpanKindClient))

	start := time.Now()
	resp, err := do(c.http.R().SetContext(ctx))
	elapsed := time.Since(start)

	if c.collector != nil {
		c.collector.ObserveCustodyLatency(elapsed)
		c.collector.RecordCustodyRequest()
	}

	cerr := c.classify(op, resp, err)
	endSpan(cerr)

	if cerr != nil {
		if c.collector != nil {
			c.collector.RecordCustodyFailure()
		}
		c.log.Warn().Str("op", op).Dur("elapsed", elapsed).Err(cerr).Msg("custody round trip failed")
		return cerr
	}

	c.log.Debug().Str("op", op).Dur("elapsed", elapsed).Msg("custody round trip ok")
	return nil
}

// classify maps transport and HTTP outcomes onto the error taxonomy.
func (c *Client) classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return qerrors.NewCustodyError(op, err, true)
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
		return qerrors.NewCustodyError(op, fmt.Errorf("status %d", code), true)
	default:
		return qerrors.NewCustodyError(op, fmt.Errorf("status %d", code), false)
	}
}
