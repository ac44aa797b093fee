// Package server wires the application together: repositories, cache,
// feed pipeline, scheduled jobs, and the HTTP surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/telemat/epgsync/internal/api"
	"github.com/telemat/epgsync/internal/cache"
	"github.com/telemat/epgsync/internal/config"
	"github.com/telemat/epgsync/internal/db"
	"github.com/telemat/epgsync/internal/feed"
	"github.com/telemat/epgsync/internal/jobs"
	"github.com/telemat/epgsync/internal/logger"
	"github.com/telemat/epgsync/internal/middleware"
	"github.com/telemat/epgsync/internal/models"
	"github.com/telemat/epgsync/internal/storage"
	syncsvc "github.com/telemat/epgsync/internal/sync"
)

// Server represents the HTTP server and its scheduled jobs
type Server struct {
	config      *config.Config
	db          *db.DB
	repos       *db.Repositories
	cache       cache.Cache
	store       storage.ObjectStore
	syncService *syncsvc.Service
	precompute  *jobs.PrecomputeJob
	retention   *jobs.RetentionJob
	scheduler   *cron.Cron
	router      *gin.Engine
	server      *http.Server
}

// New creates a new server instance. store may be nil when object
// storage is not configured; raw backups and snapshots are then
// disabled.
func New(cfg *config.Config, database *db.DB, c cache.Cache, store storage.ObjectStore) *Server {
	repos := db.NewRepositories(database)
	loc := cfg.FeedLocation()

	fetcher := feed.NewFetcher(&cfg.Feed)
	syncService := syncsvc.NewService(fetcher, repos.Channels, repos.Programs, c, store, syncsvc.Config{
		BatchSize:   cfg.Sync.BatchSize,
		MaxAttempts: cfg.Feed.MaxAttempts,
		Location:    loc,
	})

	var precompute *jobs.PrecomputeJob
	if store != nil {
		urlTTL := time.Duration(cfg.Storage.SignedURLTTLMinutes) * time.Minute
		precompute = jobs.NewPrecomputeJob(repos.Channels, repos.Programs, store, loc, urlTTL)
	}
	retention := jobs.NewRetentionJob(repos.Programs, cfg.Retention.Days, cfg.Retention.Lookback, loc)

	return &Server{
		config:      cfg,
		db:          database,
		repos:       repos,
		cache:       c,
		store:       store,
		syncService: syncService,
		precompute:  precompute,
		retention:   retention,
		scheduler:   cron.New(),
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api")

	loc := s.config.FeedLocation()
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupChannelRoutes(apiGroup, s.repos.Channels, s.cache, s.config.Cache.TTL)
	api.SetupProgramRoutes(apiGroup, s.repos.Programs, s.cache, s.config.Cache.TTL, loc)

	var snapshotter api.Snapshotter
	if s.precompute != nil {
		snapshotter = s.precompute
	}
	api.SetupAdminRoutes(apiGroup, s.syncService, snapshotter)
}

// setupScheduler registers the recurring sync, precompute, and retention
// jobs. Schedules are standard five-field cron expressions.
func (s *Server) setupScheduler() error {
	loc := s.config.FeedLocation()

	if s.config.Feed.URL != "" {
		if _, err := s.scheduler.AddFunc(s.config.Sync.Schedule, func() {
			s.syncService.Run(context.Background(), syncsvc.Options{ForceRefresh: true})
		}); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", s.config.Sync.Schedule, err)
		}
	} else {
		logger.Log.Warn().Msg("Feed URL not configured, scheduled sync disabled")
	}

	if s.precompute != nil {
		if _, err := s.scheduler.AddFunc(s.config.Sync.PrecomputeSchedule, func() {
			dateKey := models.DateKey(time.Now(), loc)
			if _, err := s.precompute.Run(context.Background(), dateKey); err != nil {
				logger.Log.Error().Err(err).Str("date", dateKey).Msg("Scheduled snapshot failed")
			}
		}); err != nil {
			return fmt.Errorf("invalid precompute schedule %q: %w", s.config.Sync.PrecomputeSchedule, err)
		}
	}

	if _, err := s.scheduler.AddFunc(s.config.Retention.Schedule, func() {
		s.retention.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.Retention.Schedule, err)
	}

	return nil
}

// Start starts the scheduler and the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	if err := s.setupScheduler(); err != nil {
		return err
	}
	s.scheduler.Start()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, waiting for any in-flight
// scheduled job to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	cronCtx := s.scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		logger.Log.Warn().Msg("Timed out waiting for scheduled jobs to finish")
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
