package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
}

func TestRetention_PrunesBeyondWindow(t *testing.T) {
	programs := &fakeProgramSource{
		deleted: map[string]int64{
			"20250123": 40,
			"20250122": 35,
		},
	}

	job := NewRetentionJob(programs, 7, 10, time.UTC)
	job.now = fixedNow

	result := job.Run(context.Background())

	assert.True(t, result.Success)
	// Days 8, 9, and 10 back from 2025-01-31.
	assert.Equal(t, []string{"20250123", "20250122", "20250121"}, programs.calls)
	assert.Equal(t, 3, result.DaysPruned)
	assert.Equal(t, int64(75), result.ProgramsDeleted)
	assert.Empty(t, result.Errors)
}

func TestRetention_KeepsRetainedDays(t *testing.T) {
	programs := &fakeProgramSource{}

	job := NewRetentionJob(programs, 7, 30, time.UTC)
	job.now = fixedNow

	job.Run(context.Background())

	for _, dateKey := range programs.calls {
		// Nothing within the 7-day window, today included, is touched.
		assert.Less(t, dateKey, "20250124")
	}
	assert.Len(t, programs.calls, 23)
}

func TestRetention_DayFailureIsIsolated(t *testing.T) {
	programs := &fakeProgramSource{
		deleted:   map[string]int64{"20250121": 12},
		deleteErr: map[string]error{"20250122": errors.New("db locked")},
	}

	job := NewRetentionJob(programs, 7, 10, time.UTC)
	job.now = fixedNow

	result := job.Run(context.Background())

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "20250122")
	// The failing day does not stop the later ones.
	assert.Equal(t, 2, result.DaysPruned)
	assert.Equal(t, int64(12), result.ProgramsDeleted)
}

func TestRetention_Defaults(t *testing.T) {
	programs := &fakeProgramSource{}

	job := NewRetentionJob(programs, 0, 0, nil)
	job.now = fixedNow

	result := job.Run(context.Background())

	assert.True(t, result.Success)
	// Defaults: 7-day retention with a 30-day lookback.
	assert.Len(t, programs.calls, 23)
}
