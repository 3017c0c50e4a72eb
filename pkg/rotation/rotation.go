// Package rotation schedules and audits rotation of the long-lived
// custody wrapping key.
//
// The scheduler holds no global state: each instance owns its own
// configuration and append-only history, so independent schedulers can
// coexist and tests stay deterministic.
package rotation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medvault-labs/sealkit/internal/constants"
	"github.com/medvault-labs/sealkit/pkg/custody"
	"github.com/medvault-labs/sealkit/pkg/metrics"
)

// State is the outcome of a due-date check.
type State string

const (
	// StateUpToDate means the newest key version is within the period.
	StateUpToDate State = "UpToDate"
	// StateRotationNeeded means the newest key version has outlived the period.
	StateRotationNeeded State = "RotationNeeded"
)

// Config is the scheduler configuration. Callers always receive a copy,
// never a live reference to scheduler state.
type Config struct {
	// PeriodDays is the rotation period. Defaults to 90.
	PeriodDays int

	// AutoRotationEnabled records whether InitializeAutoRotation has
	// successfully configured the custody service.
	AutoRotationEnabled bool
}

// RotationRecord is one entry in the scheduler's append-only history.
// Records are never mutated after append.
type RotationRecord struct {
	Success         bool      `json:"success"`
	PreviousVersion string    `json:"previousVersion,omitempty"`
	NewVersion      string    `json:"newVersion,omitempty"`
	RotatedAt       time.Time `json:"rotatedAt,omitempty"`
	NextRotation    time.Time `json:"nextRotation,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// HealthReport is a read-only projection of rotation health.
type HealthReport struct {
	State          State         `json:"state"`
	NewestVersion  string        `json:"newestVersion"`
	NewestKeyAge   time.Duration `json:"newestKeyAge"`
	PeriodDays     int           `json:"periodDays"`
	VersionCount   int           `json:"versionCount"`
	HistoryEntries int           `json:"historyEntries"`
	Notes          []string      `json:"notes,omitempty"`
}

// ScheduleReport is the compliance report combining configuration,
// version listing and derived notes.
type ScheduleReport struct {
	GeneratedAt         time.Time            `json:"generatedAt"`
	PeriodDays          int                  `json:"periodDays"`
	AutoRotationEnabled bool                 `json:"autoRotationEnabled"`
	Versions            []custody.KeyVersion `json:"versions"`
	NextRotation        time.Time            `json:"nextRotation,omitempty"`
	Compliant           bool                 `json:"compliant"`
	Notes               []string             `json:"notes,omitempty"`
}

// Scheduler tracks rotation due-dates against one custody service.
type Scheduler struct {
	mu      sync.Mutex
	custody custody.Service
	cfg     Config
	history []RotationRecord

	log       zerolog.Logger
	collector *metrics.Collector
	tracer    metrics.Tracer
	now       func() time.Time
}

// Option configures a scheduler.
type Option func(*Scheduler)

// WithPeriodDays overrides the default 90-day rotation period.
func WithPeriodDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.cfg.PeriodDays = days
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log.With().Str("component", "rotation").Logger() }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Scheduler) { s.collector = c }
}

// WithTracer attaches a tracer.
func WithTracer(t metrics.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

// WithClock overrides the scheduler's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler for the given custody service.
func NewScheduler(svc custody.Service, opts ...Option) *Scheduler {
	s := &Scheduler{
		custody: svc,
		cfg:     Config{PeriodDays: constants.DefaultRotationPeriodDays},
		log:     zerolog.Nop(),
		tracer:  metrics.NoOpTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns a copy of the current configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// History returns a copy of the rotation history, oldest first.
func (s *Scheduler) History() []RotationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RotationRecord, len(s.history))
	copy(out, s.history)
	return out
}

// InitializeAutoRotation configures the custody service's own periodic
// rotation with the scheduler's period and appends a RotationRecord
// reflecting the outcome.
func (s *Scheduler) InitializeAutoRotation(ctx context.Context) error {
	period := s.Config().PeriodDays
	current := s.newestVersionPath(ctx)

	err := s.custody.EnableAutoRotation(ctx, period)
	now := s.now()

	record := RotationRecord{
		Success:         err == nil,
		PreviousVersion: current,
		RotatedAt:       now,
	}
	if err != nil {
		record.Error = err.Error()
	} else {
		record.NextRotation = now.AddDate(0, 0, period)
	}

	s.mu.Lock()
	s.history = append(s.history, record)
	if err == nil {
		s.cfg.AutoRotationEnabled = true
	}
	s.mu.Unlock()

	if s.collector != nil {
		s.collector.RecordRotation(err == nil)
	}
	if err != nil {
		s.log.Error().Err(err).Int("period_days", period).Msg("auto-rotation setup failed")
		return err
	}
	s.log.Info().Int("period_days", period).Time("next_rotation", record.NextRotation).
		Msg("auto-rotation configured")
	return nil
}

// IsRotationDue reports whether the newest key version has outlived the
// configured period.
func (s *Scheduler) IsRotationDue(ctx context.Context) (bool, error) {
	ctx, endSpan := s.tracer.StartSpan(ctx, metrics.SpanRotationCheck)

	newest, _, err := s.newestVersion(ctx)
	endSpan(err)
	if err != nil {
		return false, err
	}

	age := s.now().Sub(newest.CreatedAt)
	return age > s.periodDuration(), nil
}

// CheckRotationHealth combines the due-date check with version and
// history counts into a single read-only report.
func (s *Scheduler) CheckRotationHealth(ctx context.Context) (*HealthReport, error) {
	newest, versions, err := s.newestVersion(ctx)
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	age := s.now().Sub(newest.CreatedAt)

	report := &HealthReport{
		State:          StateUpToDate,
		NewestVersion:  newest.Path,
		NewestKeyAge:   age,
		PeriodDays:     cfg.PeriodDays,
		VersionCount:   len(versions),
		HistoryEntries: len(s.History()),
	}
	if age > s.periodDuration() {
		report.State = StateRotationNeeded
		report.Notes = append(report.Notes,
			fmt.Sprintf("newest key version is %d days old, exceeding the %d-day period",
				int(age.Hours()/24), cfg.PeriodDays))
	}
	if !cfg.AutoRotationEnabled {
		report.Notes = append(report.Notes, "auto-rotation is not configured on the custody service")
	}
	return report, nil
}

// GenerateScheduleReport produces the compliance report. Periods longer
// than the 90-day compliance maximum are flagged as non-compliant.
func (s *Scheduler) GenerateScheduleReport(ctx context.Context) (*ScheduleReport, error) {
	versions, err := s.custody.ListKeyVersions(ctx)
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	report := &ScheduleReport{
		GeneratedAt:         s.now(),
		PeriodDays:          cfg.PeriodDays,
		AutoRotationEnabled: cfg.AutoRotationEnabled,
		Versions:            versions,
		Compliant:           true,
	}

	if cfg.PeriodDays > constants.MaxCompliantRotationDays {
		report.Compliant = false
		report.Notes = append(report.Notes,
			fmt.Sprintf("rotation period %d days exceeds the %d-day compliance maximum",
				cfg.PeriodDays, constants.MaxCompliantRotationDays))
	}
	if !cfg.AutoRotationEnabled {
		report.Notes = append(report.Notes, "auto-rotation is not configured on the custody service")
	}

	if newest, ok := newestOf(versions); ok {
		report.NextRotation = newest.CreatedAt.AddDate(0, 0, cfg.PeriodDays)
		if s.now().After(report.NextRotation) {
			report.Compliant = false
			report.Notes = append(report.Notes, "newest key version is past its rotation due date")
		}
	} else {
		report.Compliant = false
		report.Notes = append(report.Notes, "custody service reports no key versions")
	}
	return report, nil
}

func (s *Scheduler) periodDuration() time.Duration {
	return time.Duration(s.Config().PeriodDays) * 24 * time.Hour
}

// newestVersion lists key versions and selects the most recent one.
func (s *Scheduler) newestVersion(ctx context.Context) (custody.KeyVersion, []custody.KeyVersion, error) {
	versions, err := s.custody.ListKeyVersions(ctx)
	if err != nil {
		return custody.KeyVersion{}, nil, err
	}
	newest, ok := newestOf(versions)
	if !ok {
		return custody.KeyVersion{}, nil, fmt.Errorf("rotation: custody service reports no key versions")
	}
	return newest, versions, nil
}

// newestVersionPath returns the newest version path, empty on failure.
// Used only for history annotation, so errors are swallowed.
func (s *Scheduler) newestVersionPath(ctx context.Context) string {
	newest, _, err := s.newestVersion(ctx)
	if err != nil {
		return ""
	}
	return newest.Path
}

func newestOf(versions []custody.KeyVersion) (custody.KeyVersion, bool) {
	if len(versions) == 0 {
		return custody.KeyVersion{}, false
	}
	newest := versions[0]
	for _, v := range versions[1:] {
		if v.CreatedAt.After(newest.CreatedAt) {
			newest = v
		}
	}
	return newest, true
}
