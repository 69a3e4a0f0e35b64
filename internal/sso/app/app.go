package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/tutorhub/sso/internal/sso/http"
	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/internal/sso/store"
	"github.com/tutorhub/sso/internal/sso/store/drivers/memory"
	"github.com/tutorhub/sso/internal/sso/store/drivers/sqlite"
	"github.com/tutorhub/sso/pkg/jwtx"
	"github.com/tutorhub/sso/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the SSO service together: sqlite for accounts, the
// in-memory state store for flows, ephemeral signing keys, the HTTP surface,
// and the background sweeper.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	state      store.StateStore
	keyManager *jwtx.KeyManager

	exchangeService  *service.ExchangeService
	bootstrapService *service.BootstrapService
	sweeper          *service.Sweeper

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sso-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.state = memory.New()

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("sso service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown stops the server, the sweeper, and the database, in that order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down sso service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("sso service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	exchange := service.NewExchangeService(
		app.db.Users(),
		app.state,
		app.keyManager,
		app.cfg.Issuer,
		app.cfg.LoginURL,
	)
	if app.cfg.CodeTTL > 0 {
		exchange.CodeTTL = app.cfg.CodeTTL
	}
	if app.cfg.SessionTTL > 0 {
		exchange.SessionTTL = app.cfg.SessionTTL
	}
	if app.cfg.AccessTTL > 0 {
		exchange.AccessTTL = app.cfg.AccessTTL
	}
	app.exchangeService = exchange

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Users: &service.UserService{Users: app.db.Users(), Clock: service.SystemClock()},
		Token: app.cfg.BootstrapToken,
	}

	app.sweeper = service.NewSweeper(app.state, app.logger, app.cfg.SweepInterval)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Origin,
		BuildVersion,
		app.db,
		app.logger,
	)
	router.ExchangeService = app.exchangeService
	router.BootstrapService = app.bootstrapService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
