// Package sync coordinates a full feed ingestion run: fetch, backup,
// parse, channel upsert, program conversion and batched persistence, and
// cache invalidation. Each step is fault-isolated; only fetch, parse, and
// batch persistence failures abort a run.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/telemat/epgsync/internal/cache"
	"github.com/telemat/epgsync/internal/db"
	"github.com/telemat/epgsync/internal/feed"
	"github.com/telemat/epgsync/internal/logger"
	"github.com/telemat/epgsync/internal/models"
	"github.com/telemat/epgsync/internal/slug"
	"github.com/telemat/epgsync/internal/storage"
)

// State tracks where a run currently is in the pipeline.
type State string

const (
	StateIdle              State = "idle"
	StateFetching          State = "fetching"
	StateParsing           State = "parsing"
	StateUpsertingChannels State = "upserting_channels"
	StatePersistingProgram State = "persisting_programs"
	StateInvalidatingCache State = "invalidating_cache"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// FeedSource retrieves the raw feed content.
type FeedSource interface {
	FetchWithRetry(ctx context.Context, maxAttempts int) (string, error)
}

// ChannelStore is the slice of the channel repository the orchestrator
// needs.
type ChannelStore interface {
	GetByName(ctx context.Context, name string) (*models.Channel, error)
	Save(ctx context.Context, channel *models.Channel) error
}

// ProgramStore is the slice of the program repository the orchestrator
// needs.
type ProgramStore interface {
	SaveBatch(ctx context.Context, programs []*models.Program) error
}

// Options control a single run.
type Options struct {
	// Date is the target day in YYYYMMDD form; empty means today in the
	// feed's timezone.
	Date string

	// ForceRefresh clears the channels:* and programs:* cache keys after
	// a successful persist.
	ForceRefresh bool
}

// Result is the structured outcome of a run. Partial failures land in
// Errors; Success is false only when a fatal step failed.
type Result struct {
	RunID             uuid.UUID     `json:"run_id"`
	Date              string        `json:"date"`
	State             State         `json:"state"`
	ChannelsProcessed int           `json:"channels_processed"`
	ProgramsProcessed int           `json:"programs_processed"`
	ProgramsSkipped   int           `json:"programs_skipped"`
	Errors            []string      `json:"errors"`
	Success           bool          `json:"success"`
	Duration          time.Duration `json:"duration"`
}

// Config holds the orchestrator's tunables.
type Config struct {
	BatchSize   int
	MaxAttempts int
	Location    *time.Location
	Classifier  feed.Classifier
}

// Service is the sync orchestrator.
type Service struct {
	source    FeedSource
	channels  ChannelStore
	programs  ProgramStore
	cache     cache.Cache
	store     storage.ObjectStore
	converter *feed.Converter
	classify  feed.Classifier
	loc       *time.Location
	batchSize int
	attempts  int

	mu    sync.Mutex
	state State
}

// NewService wires the orchestrator from its already-constructed
// dependencies. store may be nil when no object storage is configured;
// raw backups are then skipped.
func NewService(source FeedSource, channels ChannelStore, programs ProgramStore, c cache.Cache, store storage.ObjectStore, cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	classify := cfg.Classifier
	if classify == nil {
		classify = feed.DefaultClassifier()
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 500
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}

	return &Service{
		source:    source,
		channels:  channels,
		programs:  programs,
		cache:     c,
		store:     store,
		converter: feed.NewConverter(loc),
		classify:  classify,
		loc:       loc,
		batchSize: batchSize,
		attempts:  attempts,
		state:     StateIdle,
	}
}

// State returns the orchestrator's current pipeline state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run executes one sync pass for the target date. It always returns a
// structured result; fatal failures set Success to false and keep the
// counts accumulated up to the failing step.
func (s *Service) Run(ctx context.Context, opts Options) *Result {
	started := time.Now()
	result := &Result{
		RunID:  uuid.New(),
		Date:   opts.Date,
		Errors: []string{},
	}
	if result.Date == "" {
		result.Date = models.DateKey(time.Now(), s.loc)
	}

	defer func() {
		result.Duration = time.Since(started)
		s.setState(result.State)
		logger.Log.Info().
			Str("run_id", result.RunID.String()).
			Str("date", result.Date).
			Bool("success", result.Success).
			Int("channels", result.ChannelsProcessed).
			Int("programs", result.ProgramsProcessed).
			Int("skipped", result.ProgramsSkipped).
			Int("errors", len(result.Errors)).
			Dur("duration", result.Duration).
			Msg("Sync run finished")
	}()

	if _, err := models.DateRangeForDay(result.Date, s.loc); err != nil {
		return s.fail(result, fmt.Errorf("invalid target date %q: %w", result.Date, err))
	}

	// Fetch
	s.setState(StateFetching)
	content, err := s.source.FetchWithRetry(ctx, s.attempts)
	if err != nil {
		return s.fail(result, err)
	}

	// Raw backup is best-effort only; a broken object store must not
	// stop ingestion.
	s.backupRaw(ctx, result, content)

	// Parse
	s.setState(StateParsing)
	parsed, err := feed.Parse(content)
	if err != nil {
		return s.fail(result, err)
	}

	// Channels
	s.setState(StateUpsertingChannels)
	channelIDs := s.upsertChannels(ctx, result, parsed.Channels)

	// Programs for the target date
	s.setState(StatePersistingProgram)
	programs, skipped := s.converter.Convert(s.filterByDate(parsed.Programmes, result.Date), channelIDs)
	result.ProgramsSkipped = skipped

	if err := s.persistPrograms(ctx, result, programs); err != nil {
		return s.fail(result, err)
	}

	// Cache invalidation
	if opts.ForceRefresh {
		s.setState(StateInvalidatingCache)
		s.cache.Clear(ctx, "channels:*")
		s.cache.Clear(ctx, "programs:*")
	}

	result.State = StateDone
	result.Success = true
	return result
}

func (s *Service) fail(result *Result, err error) *Result {
	logger.Log.Error().
		Err(err).
		Str("run_id", result.RunID.String()).
		Str("date", result.Date).
		Msg("Sync run failed")
	result.Errors = append(result.Errors, err.Error())
	result.State = StateFailed
	result.Success = false
	return result
}

// backupRaw uploads the raw payload keyed by date. Failures are recorded
// as diagnostics, never as run failures.
func (s *Service) backupRaw(ctx context.Context, result *Result, content string) {
	if s.store == nil {
		return
	}

	path := fmt.Sprintf("backups/%s/feed.xml", result.Date)
	_, err := s.store.Upload(ctx, path, []byte(content), "application/xml", map[string]string{
		"run_id": result.RunID.String(),
		"date":   result.Date,
	})
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("path", path).
			Msg("Raw feed backup failed")
		result.Errors = append(result.Errors, fmt.Sprintf("backup: %v", err))
	}
}

// upsertChannels creates unseen channels and refreshes changed icons,
// returning the external-id to internal-id lookup used by the converter.
// Per-channel failures are skipped, not fatal.
func (s *Service) upsertChannels(ctx context.Context, result *Result, records []feed.ChannelRecord) map[string]models.ChannelID {
	channelIDs := make(map[string]models.ChannelID, len(records))

	for _, record := range records {
		id, err := s.upsertChannel(ctx, record)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("name", record.DisplayName).
				Msg("Skipping channel")
			result.Errors = append(result.Errors, fmt.Sprintf("channel %s: %v", record.DisplayName, err))
			continue
		}
		channelIDs[record.ExternalID] = id
		result.ChannelsProcessed++
	}

	return channelIDs
}

func (s *Service) upsertChannel(ctx context.Context, record feed.ChannelRecord) (models.ChannelID, error) {
	existing, err := s.channels.GetByName(ctx, record.DisplayName)
	if err != nil && !db.IsNotFound(err) {
		return "", err
	}

	if existing == nil || db.IsNotFound(err) {
		ctype, region := s.classify(record.DisplayName)
		channel, err := models.NewChannel(
			models.ChannelID(slug.Make(record.DisplayName)),
			record.DisplayName,
			record.Icon,
			ctype,
			region,
			true,
		)
		if err != nil {
			return "", err
		}
		if err := s.channels.Save(ctx, channel); err != nil {
			return "", err
		}
		logger.Log.Debug().
			Str("channel_id", channel.ID.String()).
			Str("name", channel.Name).
			Str("type", string(channel.Type)).
			Msg("Created channel")
		return channel.ID, nil
	}

	if iconChanged(existing.Icon, record.Icon) {
		existing.Icon = record.Icon
		if err := s.channels.Save(ctx, existing); err != nil {
			return "", err
		}
		logger.Log.Debug().
			Str("channel_id", existing.ID.String()).
			Msg("Updated channel icon")
	}
	return existing.ID, nil
}

// filterByDate keeps programmes starting on the target day. Records whose
// timestamps do not parse pass through so the converter can count them.
func (s *Service) filterByDate(records []feed.ProgrammeRecord, dateKey string) []feed.ProgrammeRecord {
	filtered := make([]feed.ProgrammeRecord, 0, len(records))
	for _, record := range records {
		key, err := s.converter.DateKeyOf(record.Start)
		if err != nil || key == dateKey {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// persistPrograms writes programs in fixed-size batches. A batch failure
// is fatal, but batches already committed stay committed; re-running is
// safe because ids are deterministic.
func (s *Service) persistPrograms(ctx context.Context, result *Result, programs []*models.Program) error {
	for start := 0; start < len(programs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(programs) {
			end = len(programs)
		}
		if err := s.programs.SaveBatch(ctx, programs[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		result.ProgramsProcessed += end - start
	}
	return nil
}

func iconChanged(current, incoming *string) bool {
	switch {
	case current == nil && incoming == nil:
		return false
	case current == nil || incoming == nil:
		return true
	default:
		return *current != *incoming
	}
}
