package db

import (
	"context"
	"fmt"
	"time"

	"github.com/telemat/epgsync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// programUpsertColumns are the columns refreshed when an upsert hits an
// existing program id.
var programUpsertColumns = []string{
	"channel_id", "title", "start_time", "end_time", "date", "duration_minutes",
	"description", "image", "genre", "year", "rating", "updated_at",
}

// ProgramFilters narrows program listing within a date range.
type ProgramFilters struct {
	ChannelID *models.ChannelID
	Genre     *string
	Limit     int
	Offset    int
}

// ProgramRepository handles database operations for programs
type ProgramRepository struct {
	db *DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// Save upserts a single program by its deterministic id
func (r *ProgramRepository) Save(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(programUpsertColumns),
		}).
		Create(program)
	if result.Error != nil {
		return fmt.Errorf("failed to save program: %w", MapGormError(result.Error))
	}
	return nil
}

// SaveBatch upserts a batch of programs inside a single transaction. The
// batch commits or rolls back as a whole; batches already committed by
// earlier calls are unaffected.
func (r *ProgramRepository) SaveBatch(ctx context.Context, programs []*models.Program) error {
	if len(programs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, p := range programs {
		p.UpdatedAt = now
	}

	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(programUpsertColumns),
			}).
			Create(programs)
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to save program batch: %w", MapGormError(err))
	}
	return nil
}

// GetByID retrieves a program by its identifier
func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&program)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &program, nil
}

// ListByChannel retrieves a channel's programs within the range, ordered by
// start time
func (r *ProgramRepository) ListByChannel(ctx context.Context, channelID models.ChannelID, dateRange models.DateRange) ([]*models.Program, error) {
	var programs []*models.Program
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID.String()).
		Where("start_time >= ? AND start_time <= ?", dateRange.Start.UTC(), dateRange.End.UTC()).
		Order("start_time ASC").
		Find(&programs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list programs by channel: %w", MapGormError(result.Error))
	}
	return programs, nil
}

// ListByDateRange retrieves programs within the range matching the filters,
// ordered by channel then start time. Limit <= 0 means unbounded.
func (r *ProgramRepository) ListByDateRange(ctx context.Context, dateRange models.DateRange, filters ProgramFilters) ([]*models.Program, error) {
	query := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time <= ?", dateRange.Start.UTC(), dateRange.End.UTC()).
		Order("channel_id ASC, start_time ASC")
	if filters.ChannelID != nil {
		query = query.Where("channel_id = ?", filters.ChannelID.String())
	}
	if filters.Genre != nil {
		query = query.Where("genre = ?", *filters.Genre)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var programs []*models.Program
	result := query.Find(&programs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list programs: %w", MapGormError(result.Error))
	}
	return programs, nil
}

// DeleteByDate bulk-deletes all programs whose partition key matches the
// given YYYYMMDD day. Returns the number of rows removed.
func (r *ProgramRepository) DeleteByDate(ctx context.Context, dateKey string) (int64, error) {
	result := r.db.WithContext(ctx).Where("date = ?", dateKey).Delete(&models.Program{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete programs for %s: %w", dateKey, MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// CountByDate returns the number of programs persisted for the given day
func (r *ProgramRepository) CountByDate(ctx context.Context, dateKey string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Program{}).Where("date = ?", dateKey).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count programs for %s: %w", dateKey, MapGormError(result.Error))
	}
	return count, nil
}
