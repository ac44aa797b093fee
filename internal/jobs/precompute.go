// Package jobs holds the scheduled maintenance work that runs around the
// sync pipeline: the daily snapshot precompute and retention pruning.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/telemat/epgsync/internal/db"
	"github.com/telemat/epgsync/internal/logger"
	"github.com/telemat/epgsync/internal/models"
	"github.com/telemat/epgsync/internal/storage"
)

// ChannelSource lists channels for snapshot assembly.
type ChannelSource interface {
	List(ctx context.Context, filters db.ChannelFilters) ([]*models.Channel, error)
}

// ProgramSource reads and prunes persisted programs.
type ProgramSource interface {
	ListByDateRange(ctx context.Context, dateRange models.DateRange, filters db.ProgramFilters) ([]*models.Program, error)
	DeleteByDate(ctx context.Context, dateKey string) (int64, error)
}

// ChannelSchedule pairs a channel with its programs for one day.
type ChannelSchedule struct {
	Channel  *models.Channel   `json:"channel"`
	Programs []*models.Program `json:"programs"`
}

// SnapshotMeta summarizes a snapshot document.
type SnapshotMeta struct {
	TotalChannels int       `json:"totalChannels"`
	TotalPrograms int       `json:"totalPrograms"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Snapshot is the denormalized per-day schedule document uploaded for
// read clients.
type Snapshot struct {
	Date     string            `json:"date"`
	Channels []ChannelSchedule `json:"channels"`
	Meta     SnapshotMeta      `json:"meta"`
}

// SnapshotResult reports where a snapshot landed.
type SnapshotResult struct {
	Path      string `json:"path"`
	SignedURL string `json:"signed_url"`
	Size      int    `json:"size"`
}

// PrecomputeJob builds the per-day snapshot and uploads it to blob
// storage with a time-limited access URL.
type PrecomputeJob struct {
	channels ChannelSource
	programs ProgramSource
	store    storage.ObjectStore
	loc      *time.Location
	urlTTL   time.Duration
}

// NewPrecomputeJob wires the snapshot job.
func NewPrecomputeJob(channels ChannelSource, programs ProgramSource, store storage.ObjectStore, loc *time.Location, urlTTL time.Duration) *PrecomputeJob {
	if loc == nil {
		loc = time.UTC
	}
	if urlTTL <= 0 {
		urlTTL = 6 * time.Hour
	}
	return &PrecomputeJob{
		channels: channels,
		programs: programs,
		store:    store,
		loc:      loc,
		urlTTL:   urlTTL,
	}
}

// SnapshotPath returns the deterministic storage path for a day's
// snapshot. Re-running the job for the same day overwrites it.
func SnapshotPath(dateKey string) string {
	return fmt.Sprintf("snapshots/%s.json", dateKey)
}

// Run builds, uploads, and signs the snapshot for the given day. Unlike
// the sync run, any failure here is fatal and surfaced to the scheduler.
func (j *PrecomputeJob) Run(ctx context.Context, dateKey string) (*SnapshotResult, error) {
	dateRange, err := models.DateRangeForDay(dateKey, j.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot date %q: %w", dateKey, err)
	}

	programs, err := j.programs.ListByDateRange(ctx, dateRange, db.ProgramFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load programs: %w", err)
	}

	byChannel := make(map[models.ChannelID][]*models.Program)
	for _, p := range programs {
		byChannel[p.ChannelID] = append(byChannel[p.ChannelID], p)
	}

	active := true
	channels, err := j.channels.List(ctx, db.ChannelFilters{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}

	snapshot := Snapshot{
		Date:     dateKey,
		Channels: make([]ChannelSchedule, 0, len(channels)),
		Meta: SnapshotMeta{
			TotalPrograms: len(programs),
			GeneratedAt:   time.Now().UTC(),
		},
	}
	for _, channel := range channels {
		channelPrograms, ok := byChannel[channel.ID]
		if !ok {
			// Channels silent on this day are dropped, not emitted
			// as empty schedules.
			continue
		}
		snapshot.Channels = append(snapshot.Channels, ChannelSchedule{
			Channel:  channel,
			Programs: channelPrograms,
		})
	}
	snapshot.Meta.TotalChannels = len(snapshot.Channels)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	path := SnapshotPath(dateKey)
	if _, err := j.store.Upload(ctx, path, data, "application/json", map[string]string{"date": dateKey}); err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	signedURL, err := j.store.SignedURL(ctx, path, j.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign snapshot url: %w", err)
	}

	logger.Log.Info().
		Str("date", dateKey).
		Str("path", path).
		Int("channels", snapshot.Meta.TotalChannels).
		Int("programs", snapshot.Meta.TotalPrograms).
		Int("bytes", len(data)).
		Msg("Snapshot precomputed")

	return &SnapshotResult{
		Path:      path,
		SignedURL: signedURL,
		Size:      len(data),
	}, nil
}
