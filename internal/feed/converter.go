package feed

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/telemat/epgsync/internal/logger"
	"github.com/telemat/epgsync/internal/models"
	"github.com/telemat/epgsync/internal/slug"
)

// maxProgramIDLength bounds derived program identifiers.
const maxProgramIDLength = 120

// feedTimeLayout matches the feed-native `YYYYMMDDHHMMSS ±ZZZZ` form.
const feedTimeLayout = "20060102150405 -0700"

// Converter maps intermediate programme records into validated domain
// Programs. Records that cannot be resolved or validated are skipped and
// counted; a bad record never aborts its batch.
type Converter struct {
	loc *time.Location
}

// NewConverter creates a converter using loc as the feed's local calendar.
func NewConverter(loc *time.Location) *Converter {
	if loc == nil {
		loc = time.UTC
	}
	return &Converter{loc: loc}
}

// ProgramID derives the deterministic program identifier from the internal
// channel id, the feed-native start string, and the title. The same triple
// always yields the same id, which makes re-ingestion an upsert.
func ProgramID(channelID models.ChannelID, rawStart, title string) string {
	return slug.MakeN(strings.ToLower(channelID.String()+"_"+rawStart+"_"+title), maxProgramIDLength)
}

// Convert turns programme records into Programs, resolving each record's
// external channel reference through channelIDs. It returns the converted
// programs and the number of skipped records.
func (c *Converter) Convert(records []ProgrammeRecord, channelIDs map[string]models.ChannelID) ([]*models.Program, int) {
	programs := make([]*models.Program, 0, len(records))
	skipped := 0

	for _, record := range records {
		program, err := c.convertOne(record, channelIDs)
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("channel_ref", record.ChannelExternalID).
				Str("title", record.Title).
				Str("start", record.Start).
				Msg("Skipping programme record")
			skipped++
			continue
		}
		programs = append(programs, program)
	}

	return programs, skipped
}

func (c *Converter) convertOne(record ProgrammeRecord, channelIDs map[string]models.ChannelID) (*models.Program, error) {
	channelID, ok := channelIDs[record.ChannelExternalID]
	if !ok {
		return nil, errUnresolvedChannel(record.ChannelExternalID)
	}

	start, err := c.parseTime(record.Start)
	if err != nil {
		return nil, err
	}
	stop, err := c.parseTime(record.Stop)
	if err != nil {
		return nil, err
	}

	details := models.ProgramDetails{
		Description: truncate(record.Description, models.MaxDescriptionLength),
		Image:       record.Icon,
		Genre:       record.Category,
		Rating:      record.Rating,
	}
	if record.Year != nil {
		if year, err := strconv.Atoi(*record.Year); err == nil {
			details.Year = &year
		}
	}

	return models.NewProgram(
		ProgramID(channelID, record.Start, record.Title),
		channelID,
		record.Title,
		start,
		stop,
		c.loc,
		details,
	)
}

// DateKeyOf returns the YYYYMMDD day, in the feed's local calendar, that a
// feed-native timestamp falls on.
func (c *Converter) DateKeyOf(raw string) (string, error) {
	t, err := c.parseTime(raw)
	if err != nil {
		return "", err
	}
	return models.DateKey(t, c.loc), nil
}

// parseTime turns a feed-native timestamp into an absolute UTC instant.
// Timestamps without an offset suffix are read in the feed's location.
func (c *Converter) parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(feedTimeLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("20060102150405", raw, c.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func truncate(value *string, max int) *string {
	if value == nil || len(*value) <= max {
		return value
	}
	// Back off to a rune boundary so the cut never leaves a partial
	// UTF-8 sequence behind.
	cut := max
	for cut > 0 && !utf8.RuneStart((*value)[cut]) {
		cut--
	}
	shortened := (*value)[:cut]
	return &shortened
}

type errUnresolvedChannel string

func (e errUnresolvedChannel) Error() string {
	return "unresolved channel reference: " + string(e)
}
