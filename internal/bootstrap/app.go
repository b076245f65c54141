// Package bootstrap builds the application from configuration: the database,
// the cache backends, every module's services, the HTTP engine and the
// background workers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	catalogapp "github.com/commerce/backend/internal/application/catalog"
	checkoutapp "github.com/commerce/backend/internal/application/checkout"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/commerce/backend/internal/infrastructure/event"
	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/commerce/backend/internal/infrastructure/migration"
	"github.com/commerce/backend/internal/infrastructure/notification"
	"github.com/commerce/backend/internal/infrastructure/persistence"
	"github.com/commerce/backend/internal/infrastructure/scheduler"
	"github.com/commerce/backend/internal/infrastructure/storage"
	"github.com/commerce/backend/internal/infrastructure/telemetry"
	"github.com/commerce/backend/internal/interfaces/http/handler"
	"github.com/commerce/backend/internal/interfaces/http/middleware"
	"github.com/commerce/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultCurrency is the store currency used when the store is first created
const DefaultCurrency = "usd"

// JobBlacklistPurge drops expired entries from the in-memory token blacklist
const JobBlacklistPurge = "token_blacklist_purge"

// App is the assembled application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *persistence.Database
	Stores    *cache.Stores
	Services  *Services
	Events    *event.InMemoryEventBus
	Scheduler *scheduler.Scheduler
	Metrics   *telemetry.Metrics
	Tracer    *telemetry.TracerProvider
	Engine    *gin.Engine
}

type options struct {
	version    string
	mailSender notification.Sender
	syncEvents bool
}

// Option customizes New
type Option func(*options)

// WithVersion sets the version reported by /health and trace resources
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// WithMailSender replaces the log sender used for outgoing mail
func WithMailSender(sender notification.Sender) Option {
	return func(o *options) { o.mailSender = sender }
}

// WithSyncEvents handles domain events on the publishing goroutine
func WithSyncEvents() Option {
	return func(o *options) { o.syncEvents = true }
}

// New connects to the database and the cache backends and builds every
// service and the HTTP engine. Nothing runs until Start is called. On error
// everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (app *App, err error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	app = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.close(context.Background())
			app = nil
		}
	}()

	app.Tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, o.version, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app.DB, err = openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", app.DB.Driver))

	if cfg.Telemetry.MetricsEnabled {
		app.Metrics = telemetry.NewMetrics()
		sqlDB, err := app.DB.DB.DB()
		if err != nil {
			return nil, err
		}
		if err := app.Metrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	app.Stores, err = cache.NewStores(ctx, cfg.Redis, cfg.App.IsProduction(), log)
	if err != nil {
		return nil, err
	}

	var blacklist auth.TokenBlacklist
	var memoryBlacklist *auth.InMemoryTokenBlacklist
	if app.Stores.Redis != nil {
		blacklist = auth.NewRedisTokenBlacklist(app.Stores.Redis)
	} else {
		memoryBlacklist = auth.NewInMemoryTokenBlacklist()
		blacklist = memoryBlacklist
	}

	var busOpts []event.BusOption
	if !o.syncEvents {
		busOpts = append(busOpts, event.WithAsyncDispatch())
	}
	app.Events = event.NewInMemoryEventBus(log, busOpts...)

	objects, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var checkoutMetrics checkoutapp.Metrics
	if app.Metrics != nil {
		checkoutMetrics = app.Metrics
	}
	services, jobRepos, err := newServices(serviceDeps{
		db:        app.DB.DB,
		cfg:       cfg,
		stores:    app.Stores,
		blacklist: blacklist,
		events:    app.Events,
		storage:   objects,
		metrics:   checkoutMetrics,
		logger:    log,
	})
	if err != nil {
		return nil, err
	}
	app.Services = services

	if err := app.subscribeNotifications(o.mailSender); err != nil {
		return nil, err
	}

	schedOpts := []scheduler.Option{scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout)}
	if app.Metrics != nil {
		schedOpts = append(schedOpts, scheduler.WithRecorder(app.Metrics))
	}
	app.Scheduler = scheduler.New(log, schedOpts...)
	if err := scheduler.RegisterMaintenanceJobs(app.Scheduler, jobRepos, cfg.Scheduler, cfg.Session.Retention, log); err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}
	if memoryBlacklist != nil {
		err := app.Scheduler.Register(JobBlacklistPurge, "*/10 * * * *", func(context.Context) error {
			if n := memoryBlacklist.Purge(); n > 0 {
				log.Debug("purged token blacklist", zap.Int("count", n))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register jobs: %w", err)
		}
	}

	app.Engine = app.newEngine(o.version, objects)
	return app, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	dbOpts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Database.SlowQueryThresh)),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Database.SlowQueryThresh > 0 {
			tracing.SlowQueryThresh = cfg.Database.SlowQueryThresh
		}
		if cfg.Database.Driver == "sqlite" {
			tracing.DBSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithPlugins(telemetry.NewDBTracingPlugin(tracing, log)))
	}

	db, err := persistence.NewDatabase(cfg.Database, dbOpts...)
	if err != nil {
		return nil, err
	}
	// postgres schemas come from cmd/migrate
	if db.Driver == "sqlite" {
		if err := migration.AutoMigrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (a *App) subscribeNotifications(sender notification.Sender) error {
	renderer, err := notification.NewRenderer(a.Config.Notification.TemplatesDir)
	if err != nil {
		return fmt.Errorf("failed to load mail templates: %w", err)
	}
	if sender == nil {
		sender = notification.NewLogSender(a.Logger)
	}
	mail := notification.NewHandler(renderer, sender, notification.HandlerConfig{
		From:     a.Config.Notification.From,
		ResetURL: a.Config.Auth.ResetURL,
	}, a.Logger)
	a.Events.Subscribe(
		event.NewIdempotentHandler(mail, a.Stores.Idempotency, shared.DefaultIdempotencyConfig(), a.Logger),
		mail.EventTypes()...,
	)
	a.Logger.Info("Event handlers registered", zap.Strings("notification_events", mail.EventTypes()))
	return nil
}

func (a *App) newEngine(version string, objects catalogapp.ObjectStorage) *gin.Engine {
	cfg := a.Config
	s := a.Services

	checks := map[string]handler.Pinger{"database": a.DB}
	if a.Stores.Redis != nil {
		checks["redis"] = redisPinger{client: a.Stores.Redis}
	}

	var limiter, authLimiter cache.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = a.Stores.NewRateLimiter("http", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = a.Stores.NewRateLimiter("auth", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	engineCfg := router.EngineConfig{
		HTTP:   cfg.HTTP,
		Logger: a.Logger,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Limiter: limiter,
		Health:  handler.NewHealthHandler(version, checks),
		Routes: router.RoutesConfig{
			Handlers: router.Handlers{
				Auth:           handler.NewAuthHandler(s.Auth),
				User:           handler.NewUserHandler(s.Users),
				Role:           handler.NewRoleHandler(s.Roles),
				Currency:       handler.NewCurrencyHandler(s.Currencies),
				Region:         handler.NewRegionHandler(s.Regions),
				Store:          handler.NewStoreHandler(s.Store),
				Customer:       handler.NewCustomerHandler(s.Customers),
				Product:        handler.NewProductHandler(s.Products, s.Pricing),
				ProductImport:  handler.NewProductImportHandler(s.Import),
				PriceList:      handler.NewPriceListHandler(s.Pricing),
				Tax:            handler.NewTaxHandler(s.Taxes),
				Promotion:      handler.NewPromotionHandler(s.Promotions),
				ShippingOption: handler.NewShippingOptionHandler(s.Fulfillment),
				Inventory:      handler.NewInventoryHandler(s.Inventory, s.Locations),
				Order:          handler.NewOrderHandler(s.Orders),
				Payment:        handler.NewPaymentHandler(s.Payments),
				Cart:           handler.NewCartHandler(s.Carts, s.Checkout),
				Upload:         handler.NewUploadHandler(s.Uploads),
			},
			Authenticator: s.Auth,
			AuthLimiter:   authLimiter,
			Logger:        a.Logger,
		},
	}
	if a.Metrics != nil {
		engineCfg.Metrics = a.Metrics
	}
	if local, ok := objects.(*storage.LocalObjectStorage); ok {
		engineCfg.StaticDir = local.Dir()
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return router.NewEngine(engineCfg)
}

// Start starts the event bus and the scheduler and makes sure the store exists
func (a *App) Start(ctx context.Context) error {
	if err := a.Events.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	st, err := a.Services.Store.EnsureDefaults(ctx, a.Config.App.Name, DefaultCurrency)
	if err != nil {
		return fmt.Errorf("failed to load store settings: %w", err)
	}
	a.Logger.Info("Store ready", zap.String("store_id", st.ID.String()), zap.String("currency", st.DefaultCurrencyCode))

	if a.Config.Scheduler.Enabled {
		a.Scheduler.Start()
	}
	return nil
}

// Server returns the HTTP server for the engine
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:              ":" + a.Config.App.Port,
		Handler:           a.Engine,
		ReadTimeout:       a.Config.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.Config.HTTP.WriteTimeout,
		IdleTimeout:       a.Config.HTTP.IdleTimeout,
		MaxHeaderBytes:    a.Config.HTTP.MaxHeaderBytes,
	}
}

// Shutdown stops the background workers, flushes traces and closes connections
func (a *App) Shutdown(ctx context.Context) error {
	return a.close(ctx)
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.Scheduler != nil {
		errs = append(errs, a.Scheduler.Stop(ctx))
	}
	if a.Events != nil {
		errs = append(errs, a.Events.Stop(ctx))
	}
	if a.Tracer != nil {
		errs = append(errs, a.Tracer.Shutdown(ctx))
	}
	if a.Stores != nil {
		errs = append(errs, a.Stores.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
