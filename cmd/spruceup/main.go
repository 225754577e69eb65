// Package main is the entry point for the SpruceUp Living server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spruceup/internal/cache"
	"spruceup/internal/config"
	"spruceup/internal/database"
	"spruceup/internal/handlers"
	"spruceup/internal/jobs"
	"spruceup/internal/mailer"
	"spruceup/internal/router"
	"spruceup/internal/session"
	"spruceup/internal/storage"
	"spruceup/internal/store"
)

func main() {
	// Structured logger — text output; level stays at debug in dev.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis (sessions, view buffer, reading history).
	redisClient, err := cache.Connect(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	sessionStore := session.NewStore(redisClient)
	viewBuffer := cache.NewViewBuffer(redisClient)
	readingStore := cache.NewReadingStore(redisClient)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	categoryStore := store.NewCategoryStore(db)
	settingStore := store.NewSettingStore(db)
	subscriberStore := store.NewSubscriberStore(db)

	// Connect to S3-compatible object storage (optional — app works
	// without it, with uploads disabled).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	// Keep a nil interface when storage is absent; a typed nil *Client
	// would defeat the handlers' nil checks.
	var imageStorage handlers.ImageStorage
	if storageClient != nil {
		imageStorage = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured — image uploads disabled")
	}

	// SMTP mailer (optional — contact form disabled without it).
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.ContactTo)
	if mail == nil {
		slog.Warn("smtp not configured — contact form disabled")
	}

	// Background jobs: view-count flush and nightly counter reconciliation.
	runner := jobs.NewRunner(viewBuffer, postStore, categoryStore)
	if err := runner.Start(); err != nil {
		slog.Error("failed to start background jobs", "error", err)
		os.Exit(1)
	}
	defer runner.Stop()

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(postStore, categoryStore, settingStore, subscriberStore, imageStorage)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	publicHandlers := handlers.NewPublic(postStore, categoryStore, settingStore, subscriberStore, viewBuffer, readingStore, mail, cfg.FeedPageSize)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers)

	// Create the HTTP server with sensible timeouts. WriteTimeout covers
	// image uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Flush any buffered view counts before exiting.
	runner.FlushViews()

	slog.Info("server stopped gracefully")
}
