package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/app"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/handler"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/middleware"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.NewLogger(cfg.Logging)

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, every /api/v1 request will be rejected")
	}
	if cfg.Auth.JobToken == "" {
		slog.Warn("JOB_TOKEN not set, /api/jobs/deadline-sweep is open to any caller")
	}

	var cache redis.Cmdable
	if application.Redis != nil {
		cache = application.Redis
	}

	// Setup routes
	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(application.DB, cache, cfg.Health.Timeout),
		Catalog:       handler.NewCatalogHandler(application.Catalog),
		Loans:         handler.NewLoanHandler(application.Loans),
		Penalties:     handler.NewPenaltyHandler(application.Penalties),
		Notifications: handler.NewNotificationHandler(application.Notifications, cfg.Business.NotificationRetention),
		Webhooks:      handler.NewWebhookHandler(application.Events),
		Jobs:          handler.NewJobHandler(application.Sweep),
	}, handler.RouterOptions{
		Auth:        middleware.NewAuthenticator(cfg.Auth.JWTSecret),
		JobToken:    cfg.Auth.JobToken,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	application.Close(shutdownCtx)

	slog.Info("server exited")
}
