package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/telemat/epgsync/internal/cache"
	"github.com/telemat/epgsync/internal/db"
	"github.com/telemat/epgsync/internal/models"
)

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*models.Channel `json:"channels"`
	Count    int               `json:"count"`
}

// ChannelHandler serves channel reads with a cache in front of the
// repository. All cache keys live under the channels: prefix so a sync
// run can invalidate them wholesale.
type ChannelHandler struct {
	channels *db.ChannelRepository
	cache    cache.Cache
	ttl      time.Duration
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(channels *db.ChannelRepository, c cache.Cache, ttl time.Duration) *ChannelHandler {
	return &ChannelHandler{channels: channels, cache: c, ttl: ttl}
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	filters, err := channelFiltersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	key := channelListKey(filters)
	var response ChannelListResponse
	if cache.GetJSON(c.Request.Context(), h.cache, key, &response) {
		c.JSON(http.StatusOK, response)
		return
	}

	channels, err := h.channels.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list channels",
		})
		return
	}

	response = ChannelListResponse{Channels: channels, Count: len(channels)}
	cache.SetJSON(c.Request.Context(), h.cache, key, response, h.ttl)
	c.JSON(http.StatusOK, response)
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id := models.ChannelID(c.Param("id"))

	key := "channels:id:" + id.String()
	var channel models.Channel
	if cache.GetJSON(c.Request.Context(), h.cache, key, &channel) {
		c.JSON(http.StatusOK, channel)
		return
	}

	found, err := h.channels.GetByID(c.Request.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get channel",
		})
		return
	}

	cache.SetJSON(c.Request.Context(), h.cache, key, found, h.ttl)
	c.JSON(http.StatusOK, found)
}

func channelFiltersFromQuery(c *gin.Context) (db.ChannelFilters, error) {
	var filters db.ChannelFilters

	if raw := c.Query("type"); raw != "" {
		ctype := models.ChannelType(raw)
		if !ctype.Valid() {
			return filters, fmt.Errorf("unknown channel type %q", raw)
		}
		filters.Type = &ctype
	}
	if raw := c.Query("region"); raw != "" {
		region := raw
		filters.Region = &region
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}

	return filters, nil
}

// channelListKey canonicalizes filters into a cache key so equal queries
// share an entry.
func channelListKey(filters db.ChannelFilters) string {
	ctype, region, active := "", "", ""
	if filters.Type != nil {
		ctype = string(*filters.Type)
	}
	if filters.Region != nil {
		region = *filters.Region
	}
	if filters.IsActive != nil {
		active = fmt.Sprintf("%t", *filters.IsActive)
	}
	return fmt.Sprintf("channels:list:%s:%s:%s", ctype, region, active)
}

// SetupChannelRoutes registers channel read routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, channels *db.ChannelRepository, c cache.Cache, ttl time.Duration) {
	handler := NewChannelHandler(channels, c, ttl)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:id", handler.GetChannel)
}
