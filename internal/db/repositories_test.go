package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telemat/epgsync/internal/models"
)

// setupTestRepos creates repositories backed by a temp sqlite database
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := New(tmpFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	err = RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	return NewRepositories(database)
}

func mustChannel(t *testing.T, id, name string) *models.Channel {
	t.Helper()
	ch, err := models.NewChannel(models.ChannelID(id), name, nil, models.ChannelTypeCable, nil, true)
	require.NoError(t, err)
	return ch
}

func mustProgram(t *testing.T, id, channelID, title string, start time.Time) *models.Program {
	t.Helper()
	p, err := models.NewProgram(id, models.ChannelID(channelID), title, start, start.Add(30*time.Minute), time.UTC, models.ProgramDetails{})
	require.NoError(t, err)
	return p
}

func TestChannelRepository_SaveIsUpsert(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	ch := mustChannel(t, "tvn-24", "TVN 24")
	require.NoError(t, repos.Channels.Save(ctx, ch))

	// Saving again with a new icon updates in place.
	icon := "https://example.com/tvn24.png"
	ch.Icon = &icon
	require.NoError(t, repos.Channels.Save(ctx, ch))

	got, err := repos.Channels.GetByID(ctx, "tvn-24")
	require.NoError(t, err)
	require.NotNil(t, got.Icon)
	assert.Equal(t, icon, *got.Icon)

	all, err := repos.Channels.List(ctx, ChannelFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestChannelRepository_SavePersistsInactive(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	ch, err := models.NewChannel("tvn-24", "TVN 24", nil, models.ChannelTypeCable, nil, false)
	require.NoError(t, err)
	require.NoError(t, repos.Channels.Save(ctx, ch))

	got, err := repos.Channels.GetByID(ctx, "tvn-24")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Deactivating an existing channel must stick through the upsert.
	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "polsat", "Polsat")))
	deactivated, err := repos.Channels.GetByID(ctx, "polsat")
	require.NoError(t, err)
	require.True(t, deactivated.IsActive)

	deactivated.IsActive = false
	require.NoError(t, repos.Channels.Save(ctx, deactivated))

	got, err = repos.Channels.GetByID(ctx, "polsat")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active := true
	activeOnly, err := repos.Channels.List(ctx, ChannelFilters{IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, activeOnly)
}

func TestChannelRepository_GetByNormalizedName(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "canal-plus", "Canal+ Sport")))

	got, err := repos.Channels.GetByNormalizedName(ctx, "canal-sport")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelID("canal-plus"), got.ID)

	_, err = repos.Channels.GetByNormalizedName(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestChannelRepository_ListFilters(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	region := "mazowieckie"
	regional, err := models.NewChannel("tvp-w", "TVP Warszawa", nil, models.ChannelTypeRegional, &region, true)
	require.NoError(t, err)
	require.NoError(t, repos.Channels.Save(ctx, regional))
	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "tvn-24", "TVN 24")))

	inactive := mustChannel(t, "old-tv", "Old TV")
	inactive.IsActive = false
	require.NoError(t, repos.Channels.Save(ctx, inactive))

	regionalType := models.ChannelTypeRegional
	byType, err := repos.Channels.List(ctx, ChannelFilters{Type: &regionalType})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, models.ChannelID("tvp-w"), byType[0].ID)

	active := true
	byActive, err := repos.Channels.List(ctx, ChannelFilters{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, byActive, 2)

	byRegion, err := repos.Channels.List(ctx, ChannelFilters{Region: &region})
	require.NoError(t, err)
	assert.Len(t, byRegion, 1)
}

func TestProgramRepository_SaveBatchIdempotent(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "tvn-24", "TVN 24")))

	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	batch := []*models.Program{
		mustProgram(t, "tvn-24_1", "tvn-24", "Morning News", start),
		mustProgram(t, "tvn-24_2", "tvn-24", "Weather", start.Add(time.Hour)),
	}

	require.NoError(t, repos.Programs.SaveBatch(ctx, batch))
	// Re-saving the same ids must not duplicate rows.
	require.NoError(t, repos.Programs.SaveBatch(ctx, batch))

	count, err := repos.Programs.CountByDate(ctx, "20250101")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestProgramRepository_ListByDateRange(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "a", "A")))
	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "b", "B")))

	jan1 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	jan2 := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	genre := "news"

	p1 := mustProgram(t, "a_1", "a", "A One", jan1)
	p1.Genre = &genre
	require.NoError(t, repos.Programs.SaveBatch(ctx, []*models.Program{
		p1,
		mustProgram(t, "a_2", "a", "A Two", jan1.Add(time.Hour)),
		mustProgram(t, "b_1", "b", "B One", jan1),
		mustProgram(t, "b_2", "b", "B Next Day", jan2),
	}))

	dayOne, err := models.DateRangeForDay("20250101", time.UTC)
	require.NoError(t, err)

	all, err := repos.Programs.ListByDateRange(ctx, dayOne, ProgramFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	chA := models.ChannelID("a")
	byChannel, err := repos.Programs.ListByDateRange(ctx, dayOne, ProgramFilters{ChannelID: &chA})
	require.NoError(t, err)
	assert.Len(t, byChannel, 2)

	byGenre, err := repos.Programs.ListByDateRange(ctx, dayOne, ProgramFilters{Genre: &genre})
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "a_1", byGenre[0].ID)

	limited, err := repos.Programs.ListByDateRange(ctx, dayOne, ProgramFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	viaChannel, err := repos.Programs.ListByChannel(ctx, "a", dayOne)
	require.NoError(t, err)
	require.Len(t, viaChannel, 2)
	assert.Equal(t, "A One", viaChannel[0].Title)
}

func TestProgramRepository_DeleteByDate(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Channels.Save(ctx, mustChannel(t, "a", "A")))

	jan1 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	jan2 := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Programs.SaveBatch(ctx, []*models.Program{
		mustProgram(t, "a_1", "a", "One", jan1),
		mustProgram(t, "a_2", "a", "Two", jan2),
	}))

	removed, err := repos.Programs.DeleteByDate(ctx, "20250101")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := repos.Programs.CountByDate(ctx, "20250102")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}
