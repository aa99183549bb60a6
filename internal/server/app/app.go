package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/influxmcp/internal/influx"
	"github.com/aussiebroadwan/influxmcp/internal/mcp"
	httpapi "github.com/aussiebroadwan/influxmcp/internal/server/http"
	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/internal/server/store/drivers/memory"
	"github.com/aussiebroadwan/influxmcp/internal/server/store/drivers/sqlite"
	"github.com/aussiebroadwan/influxmcp/internal/telemetry"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v1.0.0"

// Application encapsulates the MCP server with all its dependencies.
type Application struct {
	cfg      Config
	logger   *slog.Logger
	levelVar *slog.LevelVar

	// Core dependencies
	db                store.Store
	influx            *influx.Client
	dispatcher        *mcp.Dispatcher
	telemetryShutdown func(context.Context) error

	// Services
	tokenService        *service.TokenService
	registrationService *service.RegistrationService
	authorizeService    *service.AuthorizeService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levelVar := new(slog.LevelVar)
	app := &Application{
		cfg:      cfg,
		levelVar: levelVar,
		logger: slogx.New(slogx.Config{
			Service:  "influxmcp",
			Version:  BuildVersion,
			Env:      cfg.Env,
			Level:    cfg.LogLevel,
			Format:   cfg.LogFormat,
			LevelVar: levelVar,
		}),
	}

	httpx.LoadRateLimitProfiles()
	cryptox.SetPepper(cfg.SecretPepper)

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initMCP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the server and the housekeeping worker and blocks until ctx is
// cancelled or the server fails. Shutdown runs before Run returns.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return app.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.housekeepingService.Start()

	if !app.influx.Configured() {
		app.logger.Warn("INFLUXDB_TOKEN is not set, MCP requests will be rejected until it is configured")
	}
	app.logger.Info("influxdb mcp server starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"require_auth", app.cfg.RequireAuth,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested", "cause", context.Cause(gctx))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down influxdb mcp server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server. Open SSE streams end through the
	// RegisterOnShutdown hook.
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.influx.Close()

	if err := app.telemetryShutdown(ctx); err != nil {
		app.logger.Error("error flushing telemetry", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("influxdb mcp server stopped")
	return nil
}

// initStore opens the configured store driver and applies migrations.
func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case StoreSQLite:
		db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		app.db = memory.NewStore()
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

// initMCP builds the InfluxDB collaborator, telemetry and the dispatcher.
func (app *Application) initMCP() error {
	shutdown, err := telemetry.Setup(context.Background(), app.cfg.TelemetryExporter, app.cfg.ServerName, BuildVersion, os.Stdout)
	if err != nil {
		return err
	}
	app.telemetryShutdown = shutdown

	rec, err := telemetry.NewRecorder()
	if err != nil {
		return fmt.Errorf("failed to create telemetry instruments: %w", err)
	}

	app.influx = influx.New(influx.Config{
		URL:             app.cfg.InfluxURL,
		Token:           app.cfg.InfluxToken,
		Org:             app.cfg.InfluxOrg,
		Timeout:         app.cfg.InfluxTimeout,
		ApplicationName: app.cfg.ServerName,
	})

	app.dispatcher, err = mcp.NewDispatcher(mcp.Config{
		ServerName:     app.cfg.ServerName,
		ToolNameStyle:  app.cfg.ToolNameStyle,
		LoggingEnabled: app.cfg.EnableLoggingCapability,
		LevelVar:       app.levelVar,
		DefaultOrg:     app.cfg.InfluxOrg,
	}, app.influx, rec)
	return err
}

// initServices initializes the OAuth services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:               app.db,
		AccessTTL:           app.cfg.AccessTokenTTL,
		RefreshTTL:          app.cfg.RefreshTokenTTL,
		RotateRefreshTokens: app.cfg.RotateRefreshTokens,
	}
	app.registrationService = &service.RegistrationService{Store: app.db}
	app.authorizeService = &service.AuthorizeService{
		Store:                    app.db,
		CodeTTL:                  app.cfg.AuthCodeTTL,
		AllowUnregisteredClients: app.cfg.AllowUnregisteredClients,
		AutoRegisterOrigins:      app.cfg.AutoRegisterOrigins,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.PublicBaseURL,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.RegistrationService = app.registrationService
	router.Dispatcher = app.dispatcher
	router.Influx = app.influx
	router.RequireAuth = app.cfg.RequireAuth
	router.KeepAlive = app.cfg.KeepAlive()

	// Shutdown waits for handlers to return, so open streams are told to
	// finish as soon as it starts.
	streams, endStreams := context.WithCancel(context.Background())
	router.Closing = streams.Done()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(app.cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	app.server.RegisterOnShutdown(endStreams)
}
