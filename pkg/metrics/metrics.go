// Package metrics provides observability primitives for the sealkit library.
//
// The package includes:
//   - Counter and Histogram metric types for envelope operations
//   - Prometheus-compatible text export
//   - OpenTelemetry tracing behind the "otel" build tag
//   - Health check endpoints for the custody dependency
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from envelope, KEM, passphrase, custody
// and rotation operations. All methods are safe for concurrent use.
type Collector struct {
	// Envelope metrics
	sealsTotal  atomic.Uint64
	sealsFailed atomic.Uint64
	opensTotal  atomic.Uint64
	opensFailed atomic.Uint64

	// Security metrics
	authFailures  atomic.Uint64
	keysZeroized  atomic.Uint64
	kemOperations atomic.Uint64
	kemFailures   atomic.Uint64

	// Passphrase metrics
	derivationsTotal    atomic.Uint64
	passphrasesRejected atomic.Uint64

	// Custody metrics
	custodyRequests atomic.Uint64
	custodyFailures atomic.Uint64

	// Rotation metrics
	rotationsCompleted atomic.Uint64
	rotationsFailed    atomic.Uint64

	// Latency histograms
	sealLatency    *Histogram
	openLatency    *Histogram
	deriveLatency  *Histogram
	custodyLatency *Histogram

	createdAt time.Time
	labels    Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// Default bucket boundaries for latency histograms.
var (
	// EnvelopeLatencyBuckets for seal/open operations (microseconds).
	EnvelopeLatencyBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	// DeriveLatencyBuckets for Argon2id derivations (milliseconds).
	// Derivation is memory-hard and deliberately slow.
	DeriveLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500}

	// CustodyLatencyBuckets for custody round trips (milliseconds).
	CustodyLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000}
)

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}
	return &Collector{
		sealLatency:    NewHistogram(EnvelopeLatencyBuckets),
		openLatency:    NewHistogram(EnvelopeLatencyBuckets),
		deriveLatency:  NewHistogram(DeriveLatencyBuckets),
		custodyLatency: NewHistogram(CustodyLatencyBuckets),
		createdAt:      time.Now(),
		labels:         labels,
	}
}

// --- Envelope Metrics ---

// RecordSeal records a completed seal operation.
func (c *Collector) RecordSeal() {
	c.sealsTotal.Add(1)
}

// RecordSealFailure records a failed seal operation.
func (c *Collector) RecordSealFailure() {
	c.sealsFailed.Add(1)
}

// RecordOpen records a completed open operation.
func (c *Collector) RecordOpen() {
	c.opensTotal.Add(1)
}

// RecordOpenFailure records a failed open operation.
func (c *Collector) RecordOpenFailure() {
	c.opensFailed.Add(1)
}

// ObserveSealLatency records a seal duration.
func (c *Collector) ObserveSealLatency(d time.Duration) {
	c.sealLatency.Observe(float64(d.Microseconds()))
}

// ObserveOpenLatency records an open duration.
func (c *Collector) ObserveOpenLatency(d time.Duration) {
	c.openLatency.Observe(float64(d.Microseconds()))
}

// --- Security Metrics ---

// RecordAuthFailure increments the tag-verification failure counter.
// A nonzero rate here means ciphertext tampering or key mismatch.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordZeroize increments the key-material zeroization counter.
func (c *Collector) RecordZeroize() {
	c.keysZeroized.Add(1)
}

// RecordKEMOperation increments the encapsulation/decapsulation counter.
func (c *Collector) RecordKEMOperation() {
	c.kemOperations.Add(1)
}

// RecordKEMFailure increments the KEM failure counter.
func (c *Collector) RecordKEMFailure() {
	c.kemFailures.Add(1)
}

// --- Passphrase Metrics ---

// RecordDerivation records a completed passphrase derivation.
func (c *Collector) RecordDerivation() {
	c.derivationsTotal.Add(1)
}

// RecordPassphraseRejected records a passphrase failing policy checks.
func (c *Collector) RecordPassphraseRejected() {
	c.passphrasesRejected.Add(1)
}

// ObserveDeriveLatency records an Argon2id derivation duration.
func (c *Collector) ObserveDeriveLatency(d time.Duration) {
	c.deriveLatency.Observe(float64(d.Milliseconds()))
}

// --- Custody Metrics ---

// RecordCustodyRequest increments the custody round-trip counter.
func (c *Collector) RecordCustodyRequest() {
	c.custodyRequests.Add(1)
}

// RecordCustodyFailure increments the custody failure counter.
func (c *Collector) RecordCustodyFailure() {
	c.custodyFailures.Add(1)
}

// ObserveCustodyLatency records a custody round-trip duration.
func (c *Collector) ObserveCustodyLatency(d time.Duration) {
	c.custodyLatency.Observe(float64(d.Milliseconds()))
}

// --- Rotation Metrics ---

// RecordRotation records a rotation attempt outcome.
func (c *Collector) RecordRotation(success bool) {
	if success {
		c.rotationsCompleted.Add(1)
	} else {
		c.rotationsFailed.Add(1)
	}
}

// --- Snapshot ---

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	SealsTotal  uint64
	SealsFailed uint64
	OpensTotal  uint64
	OpensFailed uint64

	AuthFailures  uint64
	KeysZeroized  uint64
	KEMOperations uint64
	KEMFailures   uint64

	DerivationsTotal    uint64
	PassphrasesRejected uint64

	CustodyRequests uint64
	CustodyFailures uint64

	RotationsCompleted uint64
	RotationsFailed    uint64

	SealLatency    HistogramSummary
	OpenLatency    HistogramSummary
	DeriveLatency  HistogramSummary
	CustodyLatency HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.createdAt),
		SealsTotal:          c.sealsTotal.Load(),
		SealsFailed:         c.sealsFailed.Load(),
		OpensTotal:          c.opensTotal.Load(),
		OpensFailed:         c.opensFailed.Load(),
		AuthFailures:        c.authFailures.Load(),
		KeysZeroized:        c.keysZeroized.Load(),
		KEMOperations:       c.kemOperations.Load(),
		KEMFailures:         c.kemFailures.Load(),
		DerivationsTotal:    c.derivationsTotal.Load(),
		PassphrasesRejected: c.passphrasesRejected.Load(),
		CustodyRequests:     c.custodyRequests.Load(),
		CustodyFailures:     c.custodyFailures.Load(),
		RotationsCompleted:  c.rotationsCompleted.Load(),
		RotationsFailed:     c.rotationsFailed.Load(),
		SealLatency:         c.sealLatency.Summary(),
		OpenLatency:         c.openLatency.Summary(),
		DeriveLatency:       c.deriveLatency.Summary(),
		CustodyLatency:      c.custodyLatency.Summary(),
		Labels:              c.labels,
	}
}

// Reset clears all metrics. Intended for tests.
func (c *Collector) Reset() {
	c.sealsTotal.Store(0)
	c.sealsFailed.Store(0)
	c.opensTotal.Store(0)
	c.opensFailed.Store(0)
	c.authFailures.Store(0)
	c.keysZeroized.Store(0)
	c.kemOperations.Store(0)
	c.kemFailures.Store(0)
	c.derivationsTotal.Store(0)
	c.passphrasesRejected.Store(0)
	c.custodyRequests.Store(0)
	c.custodyFailures.Store(0)
	c.rotationsCompleted.Store(0)
	c.rotationsFailed.Store(0)
	c.sealLatency.Reset()
	c.openLatency.Reset()
	c.deriveLatency.Reset()
	c.custodyLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the process-wide metrics collector, creating it with
// default settings on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal replaces the global collector. Call during initialization,
// before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
