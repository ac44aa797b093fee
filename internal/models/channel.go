// Package models defines the channel/program domain entities and the value
// objects shared across the ingestion pipeline. All entities are constructed
// through validating constructors; a value that exists is a valid value.
package models

import (
	"strings"
	"time"

	"github.com/telemat/epgsync/internal/slug"
)

// ChannelID is an opaque, non-empty channel identifier.
type ChannelID string

// NewChannelID validates and wraps a raw identifier string.
func NewChannelID(raw string) (ChannelID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyChannelID
	}
	return ChannelID(raw), nil
}

// String returns the underlying identifier value.
func (id ChannelID) String() string {
	return string(id)
}

// ChannelType classifies how a channel is distributed.
type ChannelType string

const (
	ChannelTypeTerrestrial ChannelType = "terrestrial"
	ChannelTypeCable       ChannelType = "cable"
	ChannelTypeSatellite   ChannelType = "satellite"
	ChannelTypeRegional    ChannelType = "regional"
)

// Valid reports whether t is one of the known channel types.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeTerrestrial, ChannelTypeCable, ChannelTypeSatellite, ChannelTypeRegional:
		return true
	}
	return false
}

// Channel represents a broadcast channel known to the guide.
type Channel struct {
	ID             ChannelID   `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name           string      `json:"name" gorm:"type:text;not null;column:name"`
	NormalizedName string      `json:"normalized_name" gorm:"type:text;not null;index;column:normalized_name"`
	Icon           *string     `json:"icon,omitempty" gorm:"type:text;column:icon"`
	Type           ChannelType `json:"type" gorm:"type:text;not null;column:type"`
	Region         *string     `json:"region,omitempty" gorm:"type:text;column:region"`
	// No gorm default tag: gorm skips zero-value fields that carry one,
	// which would make IsActive=false unpersistable.
	IsActive bool `json:"is_active" gorm:"type:integer;not null;column:is_active"`
	CreatedAt      time.Time   `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt      time.Time   `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates a validated Channel. The normalized name is derived
// from the display name and is stable for a given name.
func NewChannel(id ChannelID, name string, icon *string, ctype ChannelType, region *string, isActive bool) (*Channel, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrEmptyChannelID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyChannelName
	}
	if !ctype.Valid() {
		return nil, ErrInvalidChannelType
	}
	if ctype == ChannelTypeRegional && (region == nil || strings.TrimSpace(*region) == "") {
		return nil, ErrRegionRequired
	}

	now := time.Now().UTC()
	return &Channel{
		ID:             id,
		Name:           name,
		NormalizedName: slug.Make(name),
		Icon:           icon,
		Type:           ctype,
		Region:         region,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
