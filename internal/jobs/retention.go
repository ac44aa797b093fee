package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/telemat/epgsync/internal/logger"
	"github.com/telemat/epgsync/internal/models"
)

// RetentionResult reports one pruning pass. Per-day failures are isolated
// in Errors; Success means every attempted day succeeded.
type RetentionResult struct {
	DaysPruned      int      `json:"days_pruned"`
	ProgramsDeleted int64    `json:"programs_deleted"`
	Errors          []string `json:"errors"`
	Success         bool     `json:"success"`
}

// RetentionJob prunes programs older than the retention window, one day
// at a time within a bounded lookback horizon.
type RetentionJob struct {
	programs ProgramSource
	days     int
	lookback int
	loc      *time.Location

	// now is replaceable in tests
	now func() time.Time
}

// NewRetentionJob wires the pruning job. days is the retention window,
// lookback bounds how far back pruning reaches.
func NewRetentionJob(programs ProgramSource, days, lookback int, loc *time.Location) *RetentionJob {
	if days < 1 {
		days = 7
	}
	if lookback < days {
		lookback = 30
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RetentionJob{
		programs: programs,
		days:     days,
		lookback: lookback,
		loc:      loc,
		now:      time.Now,
	}
}

// Run deletes programs for each day strictly older than today minus the
// retention window. A failure on one day is recorded and does not stop
// the remaining days.
func (j *RetentionJob) Run(ctx context.Context) *RetentionResult {
	result := &RetentionResult{Errors: []string{}}
	today := j.now().In(j.loc)

	for offset := j.days + 1; offset <= j.lookback; offset++ {
		dateKey := models.DateKey(today.AddDate(0, 0, -offset), j.loc)

		deleted, err := j.programs.DeleteByDate(ctx, dateKey)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("date", dateKey).
				Msg("Failed to prune programs for day")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", dateKey, err))
			continue
		}

		result.DaysPruned++
		result.ProgramsDeleted += deleted
		if deleted > 0 {
			logger.Log.Info().
				Str("date", dateKey).
				Int64("deleted", deleted).
				Msg("Pruned programs")
		}
	}

	result.Success = len(result.Errors) == 0
	return result
}
