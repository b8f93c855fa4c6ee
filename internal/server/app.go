// Package server wires the pilotkeeper components together and runs the
// HTTP API until the process is asked to stop.
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

	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/artifacts"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/config"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/rest"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/services"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/sessions"
)

const sessionSweepInterval = time.Minute

var (
	openDB           = repomanager.Open
	newRepoManager   = repomanager.New
	newS3ArtifactStore = func(ctx context.Context, c artifacts.S3Config) (artifacts.Store, error) {
		return artifacts.NewS3Store(ctx, c)
	}
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *sessions.MemoryStore
	server   *rest.HTTPServer
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	rm, err := newRepoManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newArtifactStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("artifact store: %w", err)
	}

	signer, err := sessions.NewSigner([]byte(c.SessionSecret))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ss := sessions.NewMemoryStore(c.SessionValidityDuration)

	ps := services.NewPilotService(db, rm, store, c, logger)
	as := services.NewAuthService(ps, store, ss, c, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: ss,
		server:   rest.NewHTTPServer(c, logger, ps, as, signer),
	}, nil
}

func newArtifactStore(ctx context.Context, c *config.Config) (artifacts.Store, error) {
	if c.ArtifactBackend == config.BackendS3 {
		return newS3ArtifactStore(ctx, artifacts.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return artifacts.NewLocalStore(c.ArtifactDir), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver, "artifacts", app.config.ArtifactBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunSweeper(ctx, sessionSweepInterval, app.logger.With("module", "sessions"))
	}()

	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	return runErr
}
