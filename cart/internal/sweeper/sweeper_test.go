package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cleanerFunc func(c context.Context, now time.Time) (int64, error)

func (f cleanerFunc) CleanupExpiredCarts(c context.Context, now time.Time) (int64, error) {
	return f(c, now)
}

func TestNewSweeper(t *testing.T) {
	noop := cleanerFunc(func(context.Context, time.Time) (int64, error) { return 0, nil })

	tests := []struct {
		name     string
		schedule string
		timezone string
		wantErr  bool
	}{
		{name: "given default schedule should schedule", schedule: DefaultSchedule, timezone: "UTC"},
		{name: "given empty schedule should fall back to default", schedule: "", timezone: ""},
		{name: "given seconds schedule should schedule", schedule: "*/5 * * * * *", timezone: "UTC"},
		{name: "given invalid schedule should fail", schedule: "not a schedule", timezone: "UTC", wantErr: true},
		{name: "given invalid timezone should fail", schedule: DefaultSchedule, timezone: "Mars/Olympus", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewSweeper(context.Background(), noop, test.schedule, test.timezone)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			s.Start()
			defer s.Stop(context.Background())
			assert.False(t, s.Next().IsZero())
		})
	}
}

func TestDefaultScheduleRunsAtThree(t *testing.T) {
	s, err := NewSweeper(context.Background(), cleanerFunc(func(context.Context, time.Time) (int64, error) {
		return 0, nil
	}), DefaultSchedule, "UTC")
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	next := s.Next().In(time.UTC)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2024, time.March, 10, 3, 0, 0, 0, time.UTC)

	t.Run("given cleaner success should return deleted count", func(t *testing.T) {
		var got time.Time
		s, err := NewSweeper(context.Background(), cleanerFunc(func(_ context.Context, n time.Time) (int64, error) {
			got = n
			return 4, nil
		}), DefaultSchedule, "UTC")
		require.NoError(t, err)
		s.now = func() time.Time { return now }

		deleted, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 4, deleted)
		assert.Equal(t, now, got)
	})

	t.Run("given cleaner failure should return error", func(t *testing.T) {
		cleanupErr := errors.New("store down")
		s, err := NewSweeper(context.Background(), cleanerFunc(func(context.Context, time.Time) (int64, error) {
			return 0, cleanupErr
		}), DefaultSchedule, "UTC")
		require.NoError(t, err)

		_, err = s.RunOnce(context.Background())
		assert.ErrorIs(t, err, cleanupErr)
	})
}

func TestScheduledRunsSurviveFailures(t *testing.T) {
	var calls atomic.Int32
	s, err := NewSweeper(context.Background(), cleanerFunc(func(context.Context, time.Time) (int64, error) {
		switch calls.Add(1) {
		case 1:
			return 0, errors.New("store down")
		case 2:
			panic("boom")
		default:
			return 1, nil
		}
	}), "@every 1s", "UTC")
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 10*time.Second, 100*time.Millisecond)
}
