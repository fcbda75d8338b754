package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/constancia"
	httpapi "github.com/aussiebroadwan/portalfiscal/internal/portal/http"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session/drivers/bolt"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session/drivers/memory"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session/drivers/sqlite"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/cryptox"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the portal with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	store       session.Store
	sessions    *session.Service
	housekeeper *session.Housekeeper
	api         *fiscalsdk.SDKClient
	constancia  constancia.Source

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal-fiscal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSessions(); err != nil {
		return nil, err
	}

	app.api = fiscalsdk.NewSDKClient(cfg.APIURL)
	app.api.HTTPClient.Timeout = cfg.APITimeout

	if err := app.initConstancia(context.Background()); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		_ = app.store.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeeper.Start()

	app.logger.Info("portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"api_url", app.cfg.APIURL,
		"session_driver", app.cfg.SessionDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeeper.Stop()
		_ = app.store.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeper.Stop()

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// PruneSessions runs one housekeeping pass and releases the store. It backs
// the "sessions prune" command.
func (app *Application) PruneSessions(ctx context.Context) (int, error) {
	defer func() { _ = app.store.Close() }()
	return app.sessions.Prune(ctx)
}

// Handler exposes the routed handler, for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Close releases the session store without starting the server.
func (app *Application) Close() error {
	return app.store.Close()
}

// initSessions opens the configured session store and applies migrations
func (app *Application) initSessions() error {
	switch app.cfg.SessionDriver {
	case "memory":
		app.store = memory.NewStore()
		app.logger.Warn("sessions are kept in memory and will not survive a restart")
	case "sqlite":
		db, err := sqlite.NewStore(fmt.Sprintf("file:%s", app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Info("database migrations applied successfully")
		app.store = db
	case "bolt":
		db, err := bolt.NewStore(app.cfg.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to open bolt database: %w", err)
		}
		app.store = db
	default:
		return fmt.Errorf("unknown session driver %q", app.cfg.SessionDriver)
	}

	material, err := cryptox.LoadMasterKey(app.cfg.MasterKey, app.cfg.MasterKeyFile)
	if err != nil {
		_ = app.store.Close()
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if material == nil {
		app.logger.Warn("no master key configured; stored sessions will not survive a restart")
	}
	sealer, err := cryptox.NewSealer(material)
	if err != nil {
		_ = app.store.Close()
		return fmt.Errorf("failed to initialize token sealer: %w", err)
	}

	app.sessions = session.NewService(app.store, sealer, app.cfg.SessionIdleTTL)
	app.housekeeper = session.NewHousekeeper(app.sessions, app.logger, app.cfg.HousekeepingInterval)
	return nil
}

// initConstancia picks where GET /constancia gets the PDF from
func (app *Application) initConstancia(ctx context.Context) error {
	s3cfg := app.cfg.ConstanciaS3
	if s3cfg.Bucket == "" {
		app.constancia = constancia.NewAPISource(app.api)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	src, err := constancia.NewS3Source(ctx, constancia.S3Config{
		Bucket:    s3cfg.Bucket,
		Key:       s3cfg.Key,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		AccessKey: s3cfg.AccessKey,
		SecretKey: s3cfg.SecretKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize constancia storage: %w", err)
	}
	app.constancia = src
	app.logger.Info("constancia served from object storage", "bucket", s3cfg.Bucket, "key", s3cfg.Key)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	views, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return err
	}
	if app.cfg.PublicURL == "" && app.cfg.Env == "prod" {
		app.logger.Warn("PORTAL_PUBLIC_URL is not set; shared client links use the request host")
	}

	router := httpapi.NewRouter(app.sessions, app.api, views, BuildVersion, app.logger)
	router.TrustedProxies = proxies
	router.Constancia = app.constancia
	router.PublicURL = app.cfg.PublicURL
	router.CookieSecure = app.cfg.CookieSecure
	router.CheckTokenExpiry = app.cfg.CheckTokenExpiry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
