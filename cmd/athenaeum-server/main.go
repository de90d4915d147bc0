// Package main is the entry point for the Athenaeum server.
// Athenaeum is a library management backend: catalog, lending,
// reservations, and reporting over a JSON HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/config"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/handler"
	"github.com/athenaeum-lms/athenaeum/internal/lock"
	"github.com/athenaeum-lms/athenaeum/internal/metrics"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
	"github.com/athenaeum-lms/athenaeum/internal/repository/postgres"
	"github.com/athenaeum-lms/athenaeum/internal/repository/sqlite"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load(os.Getenv("ATHENAEUM_CONFIG"))
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Athenaeum server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	repos, health, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer health.Close()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	policy := domain.FinePolicy{
		LoanPeriodDays: cfg.Library.LoanPeriodDays,
		FinePerDay:     cfg.Library.FinePerDay,
	}
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userService := service.NewUserService(repos.User, cfg.Auth.BcryptCost, logger)
	catalogService := service.NewCatalogService(repos.Book, logger)
	loanService := service.NewLoanService(repos.Book, repos.User, repos.Issue, locker, policy, logger)
	reservationService := service.NewReservationService(repos.Book, repos.User, repos.Reservation, logger)
	reportService := service.NewReportService(repos.Book, repos.User, repos.Issue, repos.Reservation, policy, logger)

	if cfg.Auth.BootstrapAdmin != "" {
		// Only one instance seeds the admin account at a time.
		bootstrap := lock.NewLock(locker, lock.Keys.AdminBootstrap())
		acquired, err := bootstrap.Acquire(ctx, 30*time.Second)
		if err != nil {
			return err
		}
		if acquired {
			if err := userService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdmin, cfg.Auth.BootstrapPassword); err != nil {
				return err
			}
			if err := bootstrap.Release(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to release bootstrap lock")
			}
		} else {
			logger.Info().Msg("admin bootstrap held by another instance, skipping")
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:        handler.NewUserHandler(userService, tokenManager, logger),
		BookHandler:        handler.NewBookHandler(catalogService, logger),
		IssueHandler:       handler.NewIssueHandler(loanService, m, logger),
		ReservationHandler: handler.NewReservationHandler(reservationService, m, logger),
		ReportHandler:      handler.NewReportHandler(reportService, logger),
		AuthMiddleware:     auth.Middleware(tokenManager, auth.DefaultConfig()),
		Metrics:            m,
		CORS:               cfg.CORS,
		Health:             health,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var metricsServer *metrics.Server
	if m != nil {
		metricsServer = metrics.NewServer(cfg.Metrics, m, logger)
	}
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown failed")
		}
	}
	return nil
}

// openDatabase connects to the configured backend and builds the
// repository bundle.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:        postgres.NewUserRepository(db),
			Book:        postgres.NewBookRepository(db),
			Issue:       postgres.NewIssueRepository(db),
			Reservation: postgres.NewReservationRepository(db),
		}, db, nil

	default:
		sqliteCfg := sqlite.DefaultConfig(cfg.Database.Path)
		if cfg.Database.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.Database.JournalMode
		}
		if cfg.Database.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.Database.BusyTimeout
		}
		if cfg.Database.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.Database.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:        sqlite.NewUserRepository(db),
			Book:        sqlite.NewBookRepository(db),
			Issue:       sqlite.NewIssueRepository(db),
			Reservation: sqlite.NewReservationRepository(db),
		}, db, nil
	}
}

// newLocker returns the configured per-book lock implementation.
func newLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (lock.Locker, func(), error) {
	switch cfg.Lock.Driver {
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to Redis")
		return lock.NewRedisLocker(client), func() { client.Close() }, nil

	case config.LockNoop:
		logger.Warn().Msg("book locking disabled")
		return lock.NewNoOpLocker(), func() {}, nil

	default:
		return lock.NewMemoryLocker(), func() {}, nil
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Logger()
}
