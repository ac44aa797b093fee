// Package db provides database connection management and repository interfaces.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/telemat/epgsync/internal/models"
	"gorm.io/gorm/clause"
)

// ChannelFilters narrows channel listing. Nil fields are ignored.
type ChannelFilters struct {
	Type     *models.ChannelType
	Region   *string
	IsActive *bool
}

// ChannelRepository handles database operations for channels
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Save upserts a channel by its id. Existing rows are updated in place,
// which is how the sync pipeline refreshes icons without duplicating rows.
func (r *ChannelRepository) Save(ctx context.Context, channel *models.Channel) error {
	channel.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "normalized_name", "icon", "type", "region", "is_active", "updated_at",
			}),
		}).
		Create(channel)
	if result.Error != nil {
		return fmt.Errorf("failed to save channel: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a channel by its identifier
func (r *ChannelRepository) GetByID(ctx context.Context, id models.ChannelID) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// GetByName retrieves a channel by its exact display name
func (r *ChannelRepository) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// GetByNormalizedName retrieves a channel by its normalized name
func (r *ChannelRepository) GetByNormalizedName(ctx context.Context, normalized string) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("normalized_name = ?", normalized).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// List retrieves channels matching the filters, ordered by name
func (r *ChannelRepository) List(ctx context.Context, filters ChannelFilters) ([]*models.Channel, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if filters.Type != nil {
		query = query.Where("type = ?", string(*filters.Type))
	}
	if filters.Region != nil {
		query = query.Where("region = ?", *filters.Region)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}

	var channels []*models.Channel
	result := query.Find(&channels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list channels: %w", MapGormError(result.Error))
	}
	return channels, nil
}

// Delete deletes a channel by its identifier
func (r *ChannelRepository) Delete(ctx context.Context, id models.ChannelID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Channel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
