package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/handlers"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/services/breaker"
	"github.com/ternarybob/invenio/internal/services/cachestore"
	"github.com/ternarybob/invenio/internal/services/crawler"
	"github.com/ternarybob/invenio/internal/services/discovery"
	"github.com/ternarybob/invenio/internal/services/dnscheck"
	"github.com/ternarybob/invenio/internal/services/events"
	"github.com/ternarybob/invenio/internal/services/export"
	"github.com/ternarybob/invenio/internal/services/facilities"
	jobsvc "github.com/ternarybob/invenio/internal/services/jobs"
	"github.com/ternarybob/invenio/internal/services/scheduler"
	"github.com/ternarybob/invenio/internal/services/search"
	"github.com/ternarybob/invenio/internal/storage"
)

// jobDrainTimeout bounds how long shutdown waits for in-flight enrichment
// jobs. Jobs still running past it are abandoned; the stale-job detector
// fails them on the next start.
const jobDrainTimeout = 10 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event bus and schedule
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Enrichment pipeline
	CacheService     interfaces.CacheService
	DNSChecker       interfaces.DNSChecker
	SearchService    interfaces.SearchService
	DiscoveryService interfaces.DiscoveryService
	CrawlerService   interfaces.CrawlerService

	// Catalog services
	FacilityService interfaces.FacilityService
	JobService      interfaces.JobService
	ExportService   interfaces.ExportService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	FacilityHandler  *handlers.FacilityHandler
	JobHandler       *handlers.JobHandler
	ExportHandler    *handlers.ExportHandler
	CacheHandler     *handlers.CacheHandler
	SchedulerHandler *handlers.SchedulerHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event service first: the websocket handler and every job publisher
	// hang off it.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger)

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	// Wire event consumers once everything that publishes exists
	app.WSHandler.SubscribeToJobEvents()
	if err := events.SubscribeLoggerToAllEvents(app.EventService, app.Logger); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to subscribe logger to events")
	}

	logger.Info().
		Int("workers", cfg.Jobs.Workers).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order:
// cache, then the network stack (DNS, search, discovery, crawler) guarded
// by shared circuit breakers, then the catalog and job services on top.
func (a *App) initServices() error {
	a.CacheService = cachestore.NewService(a.StorageManager.CacheStorage(), &a.Config.Cache, a.Logger)
	a.DNSChecker = dnscheck.NewService(a.CacheService, &a.Config.DNS, a.Logger)

	// The search backend trips slower but stays down longer than plain HTTP
	// probing: one blocked search endpoint stalls every discovery strategy.
	searchBreaker := breaker.New(breaker.Settings{
		Name:             "search",
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 2,
	}, a.Logger)
	httpBreaker := breaker.New(breaker.Settings{
		Name:             "http",
		FailureThreshold: 10,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	}, a.Logger)

	a.SearchService = search.NewService(&a.Config.Search, a.CacheService, searchBreaker, a.Logger)
	a.DiscoveryService = discovery.NewService(&a.Config.Discovery, a.CacheService, a.DNSChecker, a.SearchService, httpBreaker, a.Logger)
	a.CrawlerService = crawler.NewService(&a.Config.Crawler, a.Logger)

	a.FacilityService = facilities.NewService(a.StorageManager.FacilityStorage(), a.Logger)
	a.ExportService = export.NewService(a.StorageManager.FacilityStorage(), a.Logger)

	a.JobService = jobsvc.NewService(
		a.Config,
		a.StorageManager.FacilityStorage(),
		a.StorageManager.JobStorage(),
		a.StorageManager.JobLogStorage(),
		a.DiscoveryService,
		a.CrawlerService,
		a.EventService,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.Config, a.CacheService, a.JobService, a.Logger)

	// Badger never reclaims value-log space on its own, so GC runs as a
	// scheduled maintenance job next to the cache sweep.
	if schedule := a.Config.Scheduler.BadgerGCSchedule; schedule != "" {
		err := a.SchedulerService.RegisterJob("badger_gc", schedule, "Reclaim Badger value-log space", func() error {
			return a.StorageManager.RunGC(context.Background())
		})
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to register Badger GC job")
		}
	}

	a.Logger.Debug().Msg("Services initialized")
	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.FacilityHandler = handlers.NewFacilityHandler(a.FacilityService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.JobService, a.Logger)
	a.ExportHandler = handlers.NewExportHandler(a.ExportService, a.Logger)
	a.CacheHandler = handlers.NewCacheHandler(a.CacheService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Give in-flight jobs a bounded window to finish their current items
	if a.JobService != nil {
		done := make(chan struct{})
		go func() {
			a.JobService.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(jobDrainTimeout):
			a.Logger.Warn().Msg("Jobs still running at shutdown; they will be marked stale on next start")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
