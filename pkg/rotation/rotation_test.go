package rotation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault-labs/sealkit/pkg/custody"
	"github.com/medvault-labs/sealkit/pkg/rotation"
)

// failingService fails every custody operation. Implements custody.Service.
type failingService struct{}

func (failingService) GetPublicKey(context.Context, string) (*custody.PublicKeyInfo, error) {
	return nil, errors.New("custody unavailable")
}
func (failingService) AsymmetricDecrypt(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("custody unavailable")
}
func (failingService) ListKeyVersions(context.Context) ([]custody.KeyVersion, error) {
	return nil, errors.New("custody unavailable")
}
func (failingService) EnableAutoRotation(context.Context, int) error {
	return errors.New("custody unavailable")
}

// TestInitializeAutoRotation configures the fake service and appends a
// successful history record with the next due date.
func TestInitializeAutoRotation(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := rotation.NewScheduler(fake, rotation.WithClock(func() time.Time { return now }))

	require.NoError(t, s.InitializeAutoRotation(context.Background()))
	assert.Equal(t, 90, fake.AutoRotationPeriod())
	assert.True(t, s.Config().AutoRotationEnabled)

	history := s.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Contains(t, history[0].PreviousVersion, "cryptoKeyVersions/1")
	assert.Equal(t, now.AddDate(0, 0, 90), history[0].NextRotation)
}

// TestInitializeAutoRotationFailure records the failure and leaves
// auto-rotation unconfigured.
func TestInitializeAutoRotationFailure(t *testing.T) {
	s := rotation.NewScheduler(failingService{})

	require.Error(t, s.InitializeAutoRotation(context.Background()))
	assert.False(t, s.Config().AutoRotationEnabled)

	history := s.History()
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.NotEmpty(t, history[0].Error)
}

// TestIsRotationDue compares the newest version's age against the period.
func TestIsRotationDue(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	fresh := rotation.NewScheduler(fake)
	due, err := fresh.IsRotationDue(context.Background())
	require.NoError(t, err)
	assert.False(t, due, "freshly created key must not be due")

	future := time.Now().AddDate(0, 0, 91)
	aged := rotation.NewScheduler(fake, rotation.WithClock(func() time.Time { return future }))
	due, err = aged.IsRotationDue(context.Background())
	require.NoError(t, err)
	assert.True(t, due, "91-day-old key must be due under a 90-day period")

	// A new rotation resets the clock.
	_, err = fake.Rotate()
	require.NoError(t, err)
	due, err = fresh.IsRotationDue(context.Background())
	require.NoError(t, err)
	assert.False(t, due)
}

// TestIsRotationDueCustodyFailure surfaces the custody error.
func TestIsRotationDueCustodyFailure(t *testing.T) {
	s := rotation.NewScheduler(failingService{})
	_, err := s.IsRotationDue(context.Background())
	require.Error(t, err)
}

// TestCheckRotationHealth reports state and explanatory notes.
func TestCheckRotationHealth(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	s := rotation.NewScheduler(fake)
	report, err := s.CheckRotationHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rotation.StateUpToDate, report.State)
	assert.Equal(t, 1, report.VersionCount)
	assert.Contains(t, report.NewestVersion, "cryptoKeyVersions/1")
	assert.Contains(t, report.Notes, "auto-rotation is not configured on the custody service")

	future := time.Now().AddDate(0, 0, 100)
	overdue := rotation.NewScheduler(fake, rotation.WithClock(func() time.Time { return future }))
	report, err = overdue.CheckRotationHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rotation.StateRotationNeeded, report.State)
	assert.NotEmpty(t, report.Notes)
}

// TestGenerateScheduleReport flags periods exceeding 90 days and overdue
// newest versions as non-compliant.
func TestGenerateScheduleReport(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	s := rotation.NewScheduler(fake)
	require.NoError(t, s.InitializeAutoRotation(context.Background()))

	report, err := s.GenerateScheduleReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Compliant)
	assert.True(t, report.AutoRotationEnabled)
	require.Len(t, report.Versions, 1)
	assert.False(t, report.NextRotation.IsZero())

	long := rotation.NewScheduler(fake, rotation.WithPeriodDays(120))
	report, err = long.GenerateScheduleReport(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Compliant)
	assert.Contains(t, report.Notes[0], "exceeds the 90-day compliance maximum")

	future := time.Now().AddDate(0, 0, 100)
	overdue := rotation.NewScheduler(fake, rotation.WithClock(func() time.Time { return future }))
	report, err = overdue.GenerateScheduleReport(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Compliant)
}

// TestConfigCopyOnRead ensures callers cannot mutate scheduler state
// through a returned Config or History.
func TestConfigCopyOnRead(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	s := rotation.NewScheduler(fake)
	cfg := s.Config()
	cfg.PeriodDays = 1
	assert.Equal(t, 90, s.Config().PeriodDays)

	require.NoError(t, s.InitializeAutoRotation(context.Background()))
	history := s.History()
	history[0].Success = false
	assert.True(t, s.History()[0].Success)
}

// TestIndependentSchedulers keeps per-instance histories separate.
func TestIndependentSchedulers(t *testing.T) {
	fake, err := custody.NewFake()
	require.NoError(t, err)

	a := rotation.NewScheduler(fake)
	b := rotation.NewScheduler(fake)

	require.NoError(t, a.InitializeAutoRotation(context.Background()))
	assert.Len(t, a.History(), 1)
	assert.Empty(t, b.History())
}
