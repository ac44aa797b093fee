package models

import (
	"math"
	"strings"
	"time"
)

// MaxDescriptionLength bounds program descriptions.
const MaxDescriptionLength = 500

// ProgramDetails carries the optional program attributes.
type ProgramDetails struct {
	Description *string
	Image       *string
	Genre       *string
	Year        *int
	Rating      *string
}

// Program represents a single guide entry for a channel. IDs are derived
// deterministically from the channel, start time, and title, so re-ingesting
// the same feed upserts instead of duplicating.
type Program struct {
	ID              string    `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID       ChannelID `json:"channel_id" gorm:"type:text;not null;index;column:channel_id"`
	Title           string    `json:"title" gorm:"type:text;not null;column:title"`
	StartTime       time.Time `json:"start_time" gorm:"type:datetime;not null;column:start_time"`
	EndTime         time.Time `json:"end_time" gorm:"type:datetime;not null;column:end_time"`
	Date            string    `json:"date" gorm:"type:text;not null;index;column:date"`
	DurationMinutes int       `json:"duration_minutes" gorm:"type:integer;not null;column:duration_minutes"`
	Description     *string   `json:"description,omitempty" gorm:"type:text;column:description"`
	Image           *string   `json:"image,omitempty" gorm:"type:text;column:image"`
	Genre           *string   `json:"genre,omitempty" gorm:"type:text;column:genre"`
	Year            *int      `json:"year,omitempty" gorm:"type:integer;column:year"`
	Rating          *string   `json:"rating,omitempty" gorm:"type:text;column:rating"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewProgram creates a validated Program. The date partition key is the
// start time's calendar day in loc, which must be the feed's local calendar.
func NewProgram(id string, channelID ChannelID, title string, start, end time.Time, loc *time.Location, details ProgramDetails) (*Program, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyProgramID
	}
	if strings.TrimSpace(string(channelID)) == "" {
		return nil, ErrEmptyChannelID
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyProgramTitle
	}
	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}
	if details.Description != nil && len(*details.Description) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	now := time.Now().UTC()
	return &Program{
		ID:              id,
		ChannelID:       channelID,
		Title:           title,
		StartTime:       start.UTC(),
		EndTime:         end.UTC(),
		Date:            DateKey(start, loc),
		DurationMinutes: int(math.Round(end.Sub(start).Seconds() / 60)),
		Description:     details.Description,
		Image:           details.Image,
		Genre:           details.Genre,
		Year:            details.Year,
		Rating:          details.Rating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
