package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/config"
)

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{DailyHour: 3, DailyMinute: 30}
}

func noopRun(ctx context.Context) (int, error) { return 0, nil }

func TestGetStatus_NilScheduler(t *testing.T) {
	var s *Scheduler
	status := s.GetStatus()
	assert.Equal(t, "not_initialized", status.Status)
	assert.Empty(t, status.Jobs)
}

func TestGetStatus_Lifecycle(t *testing.T) {
	s := New(testConfig(), noopRun, zap.NewNop())

	status := s.GetStatus()
	assert.Equal(t, "stopped", status.Status)
	require.Len(t, status.Jobs, 1)
	assert.Equal(t, "daily_guild_analytics", status.Jobs[0].ID)
	assert.Equal(t, "update_guild_analytics", status.Jobs[0].Name)
	assert.Equal(t, "cron[hour=3, minute=30]", status.Jobs[0].Trigger)
	assert.Empty(t, status.Jobs[0].NextRun, "a stopped scheduler has no next run")

	s.Start()
	status = s.GetStatus()
	assert.Equal(t, "running", status.Status)
	require.Len(t, status.Jobs, 1)
	nextRun, err := time.Parse(time.RFC3339, status.Jobs[0].NextRun)
	require.NoError(t, err)
	assert.True(t, nextRun.After(time.Now()))

	s.Stop()
	status = s.GetStatus()
	assert.Equal(t, "stopped", status.Status)
}

func TestNew_IntervalJobRegistration(t *testing.T) {
	cfg := testConfig()
	cfg.IntervalMinutes = 15
	s := New(cfg, noopRun, zap.NewNop())

	status := s.GetStatus()
	require.Len(t, status.Jobs, 2)
	assert.Equal(t, "interval_guild_analytics", status.Jobs[1].ID)
	assert.Equal(t, "interval[minutes=15]", status.Jobs[1].Trigger)
}

func TestTriggerJob(t *testing.T) {
	var calls atomic.Int32
	run := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	}
	s := New(testConfig(), run, zap.NewNop())

	count, err := s.TriggerJob(context.Background(), "daily_guild_analytics")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.Equal(t, int32(1), calls.Load())

	_, err = s.TriggerJob(context.Background(), "no_such_job")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTriggerJob_RunErrorPropagates(t *testing.T) {
	run := func(ctx context.Context) (int, error) {
		return 0, errors.New("database unavailable")
	}
	s := New(testConfig(), run, zap.NewNop())

	_, err := s.TriggerJob(context.Background(), "daily_guild_analytics")
	assert.EqualError(t, err, "database unavailable")
}

func TestIntervalJobFires(t *testing.T) {
	var calls atomic.Int32
	run := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	}

	s := New(testConfig(), run, zap.NewNop())
	// Shrink the registered daily job into a short interval job so the test
	// can observe a real firing.
	s.jobs = []*Job{{
		ID:       "fast",
		Name:     "fast",
		trigger:  "interval[minutes=0]",
		run:      run,
		interval: 10 * time.Millisecond,
	}}

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(testConfig(), noopRun, zap.NewNop())
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	assert.Equal(t, "stopped", s.GetStatus().Status)
}

func TestNextRunTime(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, loc)

	daily := &Job{atHour: 3, atMinute: 30}
	next := nextRunTime(daily, now)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 30, 0, 0, loc), next, "later today")

	afterwards := time.Date(2026, 3, 10, 4, 0, 0, 0, loc)
	next = nextRunTime(daily, afterwards)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, loc), next, "tomorrow once passed")

	interval := &Job{interval: 15 * time.Minute}
	next = nextRunTime(interval, now)
	assert.Equal(t, now.Add(15*time.Minute), next)
}
