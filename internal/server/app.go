// Package server initializes and runs the board server: it opens and
// migrates the database, picks the upload store, builds the token issuer,
// services and HTTP stack, and shuts everything down on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/auth"
	"github.com/dmitrijs2005/oakboard/internal/server/config"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oakboard/internal/server/rest"
	"github.com/dmitrijs2005/oakboard/internal/server/services"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	server      *rest.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	tokens, err := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	files, err := storage.New(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	us := services.NewUserService(db, rm, tokens, files, logger)
	ps := services.NewPostService(db, rm, files, logger)
	rs := services.NewReplyService(db, rm, logger)

	authenticator := auth.NewAuthenticator(tokens, us, logger)

	router := rest.NewRouter(rest.Deps{
		Users:          us,
		Posts:          ps,
		Replies:        rs,
		Files:          files,
		Authenticate:   authenticator.Middleware,
		Logger:         logger,
		Metrics:        rest.NewMetrics(),
		AllowedOrigins: c.AllowedOrigins,
		Health:         db.PingContext,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		server:      rest.NewServer(c.EndpointAddrHTTP, router, logger),
	}, nil
}

// Handler exposes the HTTP stack, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.server.Handler()
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// Run serves until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
