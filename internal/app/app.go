// Package app wires configuration into connections, clients and services.
// Both binaries build the same graph and mount different entry points on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/clients"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/service"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/telemetry"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client

	Parameters *clients.ParameterClient

	Events        *service.EventService
	Loans         *service.LoanService
	Sweep         *service.SweepService
	Penalties     *service.PenaltyService
	Notifications *service.NotificationService
	Catalog       *service.CatalogService

	shutdownTracing telemetry.Shutdown
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	redisClient, err := initRedis(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	a := &App{
		Config:          cfg,
		DB:              db,
		Redis:           redisClient,
		shutdownTracing: shutdownTracing,
	}

	// Initialize repositories
	bookRepo := repository.NewBookRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	penaltyRepo := repository.NewPenaltyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	tx := repository.NewTransactor(db)

	// Initialize clients
	var cache redis.Cmdable
	if redisClient != nil {
		cache = redisClient
	}
	a.Parameters = clients.NewParameterClient(cfg.Backoffice, cache)
	broker := clients.NewBrokerClient(cfg.Broker, cfg.Backoffice)

	// Initialize services
	a.Events = service.NewEventService(outboxRepo, broker, cfg.Business.OutboxMaxAttempts)
	a.Loans = service.NewLoanService(loanRepo, bookRepo, penaltyRepo, notificationRepo, outboxRepo, tx, a.Parameters, a.Events, cfg.Business)
	a.Sweep = service.NewSweepService(loanRepo, bookRepo, penaltyRepo, notificationRepo, outboxRepo, tx, a.Parameters, a.Events, cfg.Business, cfg.Location())
	a.Penalties = service.NewPenaltyService(loanRepo, penaltyRepo, notificationRepo, outboxRepo, tx, a.Parameters, a.Events)
	a.Notifications = service.NewNotificationService(notificationRepo)
	a.Catalog = service.NewCatalogService(bookRepo, favoriteRepo)

	return a, nil
}

// Close releases connections and flushes pending spans.
func (a *App) Close(ctx context.Context) {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		slog.Warn("close database", "error", err)
	}
	if err := a.shutdownTracing(ctx); err != nil {
		slog.Warn("shutdown tracing", "error", err)
	}
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// initRedis returns nil when no REDIS_URL is configured; the parameter
// directory then runs without a cache.
func initRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		slog.Warn("REDIS_URL not set, parameter cache disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
