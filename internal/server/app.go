// Package server initializes and runs the message queue server. It opens the
// database, runs migrations, provisions the bootstrap staff account, and
// starts the HTTP gateway with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/okatenko/medqueue/internal/logging"
	"github.com/okatenko/medqueue/internal/server/config"
	"github.com/okatenko/medqueue/internal/server/httpapi"
	"github.com/okatenko/medqueue/internal/server/models"
	"github.com/okatenko/medqueue/internal/server/repositories/repomanager"
	"github.com/okatenko/medqueue/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	limiter        httpapi.RateLimiter
	accountService *services.AccountService
	messageService *services.MessageService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	as := services.NewAccountService(db, m, cfg)
	ms := services.NewMessageService(db, m)

	if cfg.BootstrapStaffName != "" {
		if _, err := as.RegisterOrGet(ctx, cfg.BootstrapStaffName, cfg.BootstrapStaffPassword, models.RoleStaff); err != nil {
			return nil, fmt.Errorf("staff bootstrap error: %w", err)
		}
	}

	var limiter httpapi.RateLimiter
	if cfg.RedisAddr != "" {
		limiter, err = httpapi.NewRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, using in-memory rate limiter", "error", err)
			limiter = httpapi.NewMemoryRateLimiter()
		}
	} else {
		limiter = httpapi.NewMemoryRateLimiter()
	}

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		limiter:        limiter,
		accountService: as,
		messageService: ms,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(app.logger, app.accountService, app.messageService,
		app.limiter, app.config.LoginRateLimit, app.config.LoginRateWindow, app.db)

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.limiter.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
