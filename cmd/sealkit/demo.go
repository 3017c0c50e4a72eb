package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/medvault-labs/sealkit/internal/config"
	"github.com/medvault-labs/sealkit/internal/logging"
	"github.com/medvault-labs/sealkit/pkg/ctops"
	"github.com/medvault-labs/sealkit/pkg/custody"
	"github.com/medvault-labs/sealkit/pkg/envelope"
	"github.com/medvault-labs/sealkit/pkg/kem"
	"github.com/medvault-labs/sealkit/pkg/metrics"
	"github.com/medvault-labs/sealkit/pkg/passkey"
	"github.com/medvault-labs/sealkit/pkg/rotation"
)

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	message := fs.String("message", "sensitive medical information", "payload to encrypt")
	passphrase := fs.String("passphrase", "CorrectPassphrase!789", "passphrase for the derivation demo")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = fs.Parse(os.Args[2:])

	logger := logging.NewConsole(*logLevel)
	collector := metrics.NewCollector(metrics.Labels{"instance": "demo"})
	ctx := context.Background()

	fmt.Println("sealkit demo — envelope encryption walk-through")
	fmt.Println()

	// In-memory custody service; point SEALKIT_CUSTODY_URL at a real one
	// and use the library directly for production flows.
	fake, err := custody.NewFake()
	if err != nil {
		fatal("create custody fake: %v", err)
	}

	k := kem.NewSimulated()
	fmt.Printf("KEM implementation: %s (interface-compatible stand-in, NOT cryptographically sound)\n", k.Name())

	kp, err := k.GenerateKeyPair()
	if err != nil {
		fatal("generate key pair: %v", err)
	}
	fmt.Printf("Generated KEM key pair, key ID %s\n\n", kp.KeyID)

	// Quantum-safe envelope.
	qse, err := envelope.CreateQuantumSafe(k, []byte(*message), kp.PublicKey)
	if err != nil {
		fatal("quantum-safe seal: %v", err)
	}
	recovered, err := envelope.OpenQuantumSafe(k, qse, kp.PrivateKey, kp.PublicKey)
	if err != nil {
		fatal("quantum-safe open: %v", err)
	}
	fmt.Printf("QuantumSafeEnvelope %s: %d payload bytes round-tripped (%q)\n",
		qse.ID, len(recovered), string(recovered))

	// Dual-key envelope.
	sealer := envelope.NewDualKeySealer(k, fake,
		envelope.WithLogger(logger),
		envelope.WithCollector(collector))
	dke, err := sealer.Create(ctx, []byte(*message), kp.PublicKey)
	if err != nil {
		fatal("dual-key seal: %v", err)
	}
	fmt.Printf("DualKeyEnvelope %s: custody key %s + KEM key %s\n",
		dke.ID, dke.CustodyKeyPath, dke.KEMKeyID)
	if _, err := sealer.Open(ctx, dke, kp.PrivateKey, kp.PublicKey); err != nil {
		fatal("dual-key open: %v", err)
	}
	fmt.Println("DualKeyEnvelope: both unwrap paths succeeded, payload recovered")

	// Passphrase derivation.
	start := time.Now()
	material, err := passkey.Derive(*passphrase)
	if err != nil {
		fatal("derive: %v", err)
	}
	defer material.Zeroize()
	fmt.Printf("\nArgon2id derivation took %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Verification hash: %s\n", material.VerificationHash)
	fmt.Printf("Correct passphrase accepted: %v\n", passkey.Verify(*passphrase, material.VerificationHash))
	fmt.Printf("Wrong passphrase rejected:   %v\n", !passkey.Verify("WrongPassphrase", material.VerificationHash))

	// Rotation.
	scheduler := rotation.NewScheduler(fake, rotation.WithLogger(logger), rotation.WithCollector(collector))
	if err := scheduler.InitializeAutoRotation(ctx); err != nil {
		fatal("initialize rotation: %v", err)
	}
	report, err := scheduler.GenerateScheduleReport(ctx)
	if err != nil {
		fatal("schedule report: %v", err)
	}
	fmt.Printf("\nRotation: period %d days, compliant=%v, %d key version(s)\n",
		report.PeriodDays, report.Compliant, len(report.Versions))

	snap := collector.Snapshot()
	fmt.Printf("\nMetrics: %d seal(s), %d open(s), %d custody round trip(s)\n",
		snap.SealsTotal, snap.OpensTotal, snap.CustodyRequests)
}

func selfTestCommand() {
	result := ctops.RunSelfTest()
	if result.Passed {
		fmt.Println("constant-time primitive self-test: PASS")
		return
	}
	fmt.Println("constant-time primitive self-test: FAIL")
	for _, msg := range result.Errors {
		fmt.Printf("  - %s\n", msg)
	}
	os.Exit(1)
}

func reportCommand() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}
	logger := logging.NewConsole(*logLevel)

	client := custody.NewClient(custody.ClientConfig{
		BaseURL:       cfg.CustodyBaseURL,
		Timeout:       cfg.CustodyTimeout,
		RetryCount:    cfg.CustodyRetryCount,
		RetryWaitTime: cfg.CustodyRetryWait,
		CacheTTL:      cfg.PublicKeyCacheTTL,
		AuthToken:     cfg.CustodyAuthToken,
	}, logger)

	scheduler := rotation.NewScheduler(client,
		rotation.WithPeriodDays(cfg.RotationPeriodDays),
		rotation.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CustodyTimeout)
	defer cancel()

	report, err := scheduler.GenerateScheduleReport(ctx)
	if err != nil {
		fatal("generate report: %v", err)
	}

	fmt.Printf("Rotation compliance report (%s)\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("  Period:        %d days\n", report.PeriodDays)
	fmt.Printf("  Auto-rotation: %v\n", report.AutoRotationEnabled)
	fmt.Printf("  Compliant:     %v\n", report.Compliant)
	fmt.Printf("  Key versions:  %d\n", len(report.Versions))
	for _, v := range report.Versions {
		fmt.Printf("    %s (%s, created %s)\n", v.Path, v.State, v.CreatedAt.Format(time.RFC3339))
	}
	for _, note := range report.Notes {
		fmt.Printf("  Note: %s\n", note)
	}
	if !report.NextRotation.IsZero() {
		fmt.Printf("  Next rotation due: %s\n", report.NextRotation.Format(time.RFC3339))
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
