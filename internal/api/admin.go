package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/telemat/epgsync/internal/jobs"
	syncsvc "github.com/telemat/epgsync/internal/sync"
)

// SyncRunner triggers ingestion runs and reports pipeline state.
type SyncRunner interface {
	Run(ctx context.Context, opts syncsvc.Options) *syncsvc.Result
	State() syncsvc.State
}

// Snapshotter builds and publishes a day's schedule snapshot.
type Snapshotter interface {
	Run(ctx context.Context, dateKey string) (*jobs.SnapshotResult, error)
}

// TriggerSyncRequest represents a manual sync trigger
type TriggerSyncRequest struct {
	Date         string `json:"date,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

// SyncStatusResponse reports where the pipeline currently is
type SyncStatusResponse struct {
	State syncsvc.State `json:"state"`
}

// AdminHandler exposes the manual sync and snapshot triggers
type AdminHandler struct {
	sync       SyncRunner
	precompute Snapshotter
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(sync SyncRunner, precompute Snapshotter) *AdminHandler {
	return &AdminHandler{sync: sync, precompute: precompute}
}

// TriggerSync handles POST /api/sync. The run executes synchronously and
// the full result is returned either way; the status code reflects the
// outcome.
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	result := h.sync.Run(c.Request.Context(), syncsvc.Options{
		Date:         req.Date,
		ForceRefresh: req.ForceRefresh,
	})
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncStatus handles GET /api/sync/status
func (h *AdminHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, SyncStatusResponse{State: h.sync.State()})
}

// TriggerSnapshot handles POST /api/snapshots/:date
func (h *AdminHandler) TriggerSnapshot(c *gin.Context) {
	if h.precompute == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "storage_unconfigured",
			Message: "Object storage is not configured",
		})
		return
	}

	result, err := h.precompute.Run(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "snapshot_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SetupAdminRoutes registers the manual trigger routes
func SetupAdminRoutes(apiGroup *gin.RouterGroup, sync SyncRunner, precompute Snapshotter) {
	handler := NewAdminHandler(sync, precompute)
	apiGroup.POST("/sync", handler.TriggerSync)
	apiGroup.GET("/sync/status", handler.SyncStatus)
	apiGroup.POST("/snapshots/:date", handler.TriggerSnapshot)
}
