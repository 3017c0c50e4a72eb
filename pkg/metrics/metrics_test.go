package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	labels := Labels{"instance": "test"}
	c := NewCollector(labels)

	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	snap := c.Snapshot()
	if snap.Labels["instance"] != "test" {
		t.Errorf("expected label instance=test, got %v", snap.Labels)
	}
}

func TestCollectorEnvelopeMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordSeal()
	c.RecordSeal()
	c.RecordSealFailure()
	c.RecordOpen()
	c.RecordOpenFailure()
	c.RecordAuthFailure()

	snap := c.Snapshot()
	if snap.SealsTotal != 2 {
		t.Errorf("expected 2 seals, got %d", snap.SealsTotal)
	}
	if snap.SealsFailed != 1 {
		t.Errorf("expected 1 failed seal, got %d", snap.SealsFailed)
	}
	if snap.OpensTotal != 1 {
		t.Errorf("expected 1 open, got %d", snap.OpensTotal)
	}
	if snap.OpensFailed != 1 {
		t.Errorf("expected 1 failed open, got %d", snap.OpensFailed)
	}
	if snap.AuthFailures != 1 {
		t.Errorf("expected 1 auth failure, got %d", snap.AuthFailures)
	}
}

func TestCollectorCustodyAndRotationMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordCustodyRequest()
	c.RecordCustodyFailure()
	c.ObserveCustodyLatency(40 * time.Millisecond)
	c.RecordRotation(true)
	c.RecordRotation(false)

	snap := c.Snapshot()
	if snap.CustodyRequests != 1 {
		t.Errorf("expected 1 custody request, got %d", snap.CustodyRequests)
	}
	if snap.CustodyFailures != 1 {
		t.Errorf("expected 1 custody failure, got %d", snap.CustodyFailures)
	}
	if snap.CustodyLatency.Count != 1 {
		t.Errorf("expected 1 latency observation, got %d", snap.CustodyLatency.Count)
	}
	if snap.RotationsCompleted != 1 || snap.RotationsFailed != 1 {
		t.Errorf("unexpected rotation counts: %d completed, %d failed",
			snap.RotationsCompleted, snap.RotationsFailed)
	}
}

func TestCollectorLatencyHistograms(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveSealLatency(100 * time.Microsecond)
	c.ObserveSealLatency(300 * time.Microsecond)
	c.ObserveOpenLatency(150 * time.Microsecond)
	c.ObserveDeriveLatency(80 * time.Millisecond)

	snap := c.Snapshot()
	if snap.SealLatency.Count != 2 {
		t.Errorf("expected 2 seal observations, got %d", snap.SealLatency.Count)
	}
	if snap.SealLatency.Mean != 200 {
		t.Errorf("expected mean 200us, got %g", snap.SealLatency.Mean)
	}
	if snap.OpenLatency.Count != 1 {
		t.Errorf("expected 1 open observation, got %d", snap.OpenLatency.Count)
	}
	if snap.DeriveLatency.Count != 1 {
		t.Errorf("expected 1 derive observation, got %d", snap.DeriveLatency.Count)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(nil)

	c.RecordSeal()
	c.RecordAuthFailure()
	c.ObserveSealLatency(time.Millisecond)
	c.Reset()

	snap := c.Snapshot()
	if snap.SealsTotal != 0 || snap.AuthFailures != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", snap)
	}
	if snap.SealLatency.Count != 0 {
		t.Errorf("expected empty histogram after reset, got %d", snap.SealLatency.Count)
	}
}

func TestPrometheusExport(t *testing.T) {
	c := NewCollector(Labels{"instance": "unit"})
	c.RecordSeal()
	c.RecordOpen()
	c.RecordCustodyRequest()
	c.ObserveSealLatency(250 * time.Microsecond)

	var sb strings.Builder
	NewPrometheusExporter(c, "sealkit").WriteMetrics(&sb)
	out := sb.String()

	for _, want := range []string{
		`sealkit_seals_total{instance="unit"} 1`,
		`sealkit_opens_total{instance="unit"} 1`,
		`sealkit_custody_requests_total{instance="unit"} 1`,
		"# TYPE sealkit_seal_duration_microseconds histogram",
		`sealkit_seal_duration_microseconds_count{instance="unit"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestSimpleTracerRecordsSpans(t *testing.T) {
	tr := NewSimpleTracer()

	ctx, end := tr.StartSpan(t.Context(), SpanSealDualKey, WithSpanKind(SpanKindInternal))
	_, endChild := tr.StartSpan(ctx, SpanKEMEncapsulate)
	endChild(nil)
	end(nil)

	spans := tr.Spans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Name != SpanKEMEncapsulate {
		t.Errorf("expected child span first, got %q", child.Name)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child span not linked to parent")
	}
	if child.TraceID != parent.TraceID {
		t.Errorf("child span has different trace ID")
	}
}

func TestHealthCheckStatus(t *testing.T) {
	c := NewCollector(nil)
	h := NewHealthCheck(c, "1.0.0-test")

	resp := h.Check()
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy with no checks, got %s", resp.Status)
	}

	h.AddCheck("selftest", SelfTestCheck(func() bool { return false }))
	resp = h.Check()
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("expected unhealthy with failing check, got %s", resp.Status)
	}

	h.RemoveCheck("selftest")
	c.RecordSeal()
	for i := 0; i < 10; i++ {
		c.RecordOpenFailure()
	}
	resp = h.Check()
	if resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded with high error rate, got %s", resp.Status)
	}
}
