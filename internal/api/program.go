package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/telemat/epgsync/internal/cache"
	"github.com/telemat/epgsync/internal/db"
	"github.com/telemat/epgsync/internal/models"
)

const maxProgramPageSize = 500

// ProgramListResponse represents one day's programs
type ProgramListResponse struct {
	Date     string            `json:"date"`
	Programs []*models.Program `json:"programs"`
	Count    int               `json:"count"`
}

// ProgramHandler serves program reads with a cache in front of the
// repository, keyed under the programs: prefix.
type ProgramHandler struct {
	programs *db.ProgramRepository
	cache    cache.Cache
	ttl      time.Duration
	loc      *time.Location
}

// NewProgramHandler creates a new program handler instance
func NewProgramHandler(programs *db.ProgramRepository, c cache.Cache, ttl time.Duration, loc *time.Location) *ProgramHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgramHandler{programs: programs, cache: c, ttl: ttl, loc: loc}
}

// ListByDate handles GET /api/programs/:date
func (h *ProgramHandler) ListByDate(c *gin.Context) {
	dateKey := c.Param("date")
	dateRange, err := models.DateRangeForDay(dateKey, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: fmt.Sprintf("Invalid date %q: expected YYYYMMDD", dateKey),
		})
		return
	}

	filters, err := programFiltersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	key := programListKey(dateKey, filters)
	var response ProgramListResponse
	if cache.GetJSON(c.Request.Context(), h.cache, key, &response) {
		c.JSON(http.StatusOK, response)
		return
	}

	programs, err := h.programs.ListByDateRange(c.Request.Context(), dateRange, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list programs",
		})
		return
	}

	response = ProgramListResponse{Date: dateKey, Programs: programs, Count: len(programs)}
	cache.SetJSON(c.Request.Context(), h.cache, key, response, h.ttl)
	c.JSON(http.StatusOK, response)
}

func programFiltersFromQuery(c *gin.Context) (db.ProgramFilters, error) {
	filters := db.ProgramFilters{Limit: maxProgramPageSize}

	if raw := c.Query("channel_id"); raw != "" {
		id := models.ChannelID(raw)
		filters.ChannelID = &id
	}
	if raw := c.Query("genre"); raw != "" {
		genre := raw
		filters.Genre = &genre
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxProgramPageSize {
			return filters, fmt.Errorf("invalid limit %q: must be 1-%d", raw, maxProgramPageSize)
		}
		filters.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filters, fmt.Errorf("invalid offset %q", raw)
		}
		filters.Offset = offset
	}

	return filters, nil
}

func programListKey(dateKey string, filters db.ProgramFilters) string {
	channel, genre := "", ""
	if filters.ChannelID != nil {
		channel = filters.ChannelID.String()
	}
	if filters.Genre != nil {
		genre = *filters.Genre
	}
	return fmt.Sprintf("programs:%s:%s:%s:%d:%d", dateKey, channel, genre, filters.Limit, filters.Offset)
}

// SetupProgramRoutes registers program read routes
func SetupProgramRoutes(apiGroup *gin.RouterGroup, programs *db.ProgramRepository, c cache.Cache, ttl time.Duration, loc *time.Location) {
	handler := NewProgramHandler(programs, c, ttl, loc)
	apiGroup.GET("/programs/:date", handler.ListByDate)
}
