// Package server wires configuration, storage, object storage and the HTTP
// API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/blob"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/httpapi"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

// Package-level seams so tests can stub external dependencies.
var (
	openDB          = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	newRepoManager  = repomanager.NewPostgresRepositoryManager
	newBlobUploader = func(ctx context.Context, c *config.Config) (blob.Uploader, error) {
		return blob.NewS3Uploader(ctx, c)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.HTTPServer
}

// NewApp connects to the database, applies migrations, optionally seeds
// principals and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	app, err := build(ctx, c, logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm, err := newRepoManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository manager error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	if c.SeedFile != "" {
		seeder := services.NewSeeder(db, rm, auth.NewHasher(c.PasswordHashCost), logger)
		n, err := seeder.SeedFromFile(ctx, c.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("seed error: %w", err)
		}
		logger.Info(ctx, "seeded principals", "count", n)
	}

	uploader, err := newBlobUploader(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object storage error: %w", err)
	}

	authSvc, err := services.NewAuthService(db, rm, c, uploader)
	if err != nil {
		return nil, fmt.Errorf("auth service error: %w", err)
	}
	catalog := services.NewProductService(db, rm, authSvc, uploader)

	router := httpapi.NewRouter(authSvc, catalog, db, logger, httpapi.Options{
		RateLimitPerSecond: c.RateLimitPerSecond,
		RateLimitBurst:     c.RateLimitBurst,
		MaxUploadBytes:     c.MaxUploadBytes,
		TrustedProxies:     c.TrustedProxies,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewHTTPServer(c.HTTPAddr, router, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a signal arrives, then closes the
// database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
