package app

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techfolio/authd/internal/auth/audit"
	"github.com/techfolio/authd/internal/auth/cache"
	httpapi "github.com/techfolio/authd/internal/auth/http"
	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/internal/auth/store"
	"github.com/techfolio/authd/internal/auth/store/drivers/sqlite"
	"github.com/techfolio/authd/pkg/jwtx"
	"github.com/techfolio/authd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier
	cache    cache.PermissionCache

	// Services
	tokenService        *service.TokenService
	authorizeService    *service.AuthorizeService
	authService         *service.AuthService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSigning(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCache(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	// Seed the default role/permission graph on a fresh database.
	if err := app.bootstrapService.SeedDefaults(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authd starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authd...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if closer, ok := app.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing permission cache", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authd stopped")
	return nil
}

// initSigning builds the signer/verifier pair for the configured algorithm.
func (app *Application) initSigning() error {
	switch app.cfg.Algorithm {
	case "HS256":
		secret := []byte(app.cfg.HS256SecretEnv)
		signer, err := jwtx.NewSignerHS256(secret)
		if err != nil {
			return fmt.Errorf("failed to initialize HS256 signer: %w", err)
		}
		app.signer = signer
		app.verifier = jwtx.NewVerifierHS256(secret, app.cfg.Issuer)

	case "EdDSA":
		if app.cfg.SigningKeyPath == "" {
			return errors.New("AUTHD_SIGNING_KEY_FILE is required for EdDSA")
		}
		pemKey, err := os.ReadFile(app.cfg.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err := jwtx.NewSignerEdDSA(pemKey)
		if err != nil {
			return fmt.Errorf("failed to initialize EdDSA signer: %w", err)
		}
		pub, ok := signer.(interface{ PublicKey() ed25519.PublicKey })
		if !ok {
			return errors.New("EdDSA signer does not expose a public key")
		}
		app.signer = signer
		app.verifier = jwtx.NewVerifierEdDSA(pub.PublicKey(), app.cfg.Issuer)

	default:
		return fmt.Errorf("unsupported signing algorithm %q (want HS256 or EdDSA)", app.cfg.Algorithm)
	}

	return nil
}

// initDatabase initializes the database and applies migrations.
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

// initCache picks the permission cache implementation. Caching is opt-in:
// without a redis address or an explicit TTL the resolver reads the store on
// every call, so role/permission deactivations take effect immediately.
func (app *Application) initCache() error {
	if app.cfg.RedisAddr == "" {
		if app.cfg.CacheTTL > 0 {
			app.cache = cache.NewMemory(app.cfg.CacheTTL)
			app.logger.Info("using in-process permission cache", "ttl", app.cfg.CacheTTL)
		}
		return nil
	}

	redisCache, err := cache.NewRedis(
		app.cfg.RedisAddr,
		app.cfg.RedisPassword,
		app.cfg.RedisDB,
		app.cfg.CacheTTL,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize redis cache: %w", err)
	}
	app.cache = redisCache
	app.logger.Info("using shared redis permission cache", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:        app.signer,
		Verifier:      app.verifier,
		Issuer:        app.cfg.Issuer,
		TTL:           app.cfg.TokenTTL,
		MaxRefreshAge: app.cfg.MaxRefreshAge,
	}

	app.authorizeService = &service.AuthorizeService{
		Store: app.db,
		Cache: app.cache,
	}

	app.authService = &service.AuthService{
		Tokens:     app.tokenService,
		Authorizer: app.authorizeService,
		Audit: audit.Fanout{
			&audit.SlogSink{Logger: app.logger},
			&audit.StoreSink{Store: app.db},
		},
	}

	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Logger: app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.AuthorizeService = app.authorizeService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
