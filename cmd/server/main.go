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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/broadcast"
	"github.com/THE3-EDU/web-the3meetup/internal/config"
	"github.com/THE3-EDU/web-the3meetup/internal/database"
	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/intake"
	"github.com/THE3-EDU/web-the3meetup/internal/liveness"
	"github.com/THE3-EDU/web-the3meetup/internal/logging"
	"github.com/THE3-EDU/web-the3meetup/internal/moderation"
	"github.com/THE3-EDU/web-the3meetup/internal/objectstore"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
	"github.com/THE3-EDU/web-the3meetup/internal/server"
	"github.com/THE3-EDU/web-the3meetup/internal/ws"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupObjectStore(cfg *config.Config) domain.ObjectStore {
	if !cfg.ObjectStoreConfigured() {
		slog.Warn("Object storage not configured, image uploads disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := objectstore.New(ctx, objectstore.Config{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.S3Bucket,
		PublicBaseURL:   cfg.S3PublicBaseURL,
	})
	if err != nil {
		slog.Error("Failed to initialize object store", "error", err)
		os.Exit(1)
	}
	return store
}

func runGracefulShutdown(srv *server.Server, monitor *liveness.Monitor, reg *registry.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		monitor.Stop()
		reg.CloseAll("Server shutting down")

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	objects := setupObjectStore(cfg)

	reg := registry.New(clock)
	router := broadcast.NewRouter(reg)

	submissions := database.NewSubmissionRepo(pool)
	moderationSvc := moderation.NewService(submissions, router)
	intakeSvc := intake.NewService(objects, submissions, moderationSvc, clock)
	gateway := ws.NewGateway(reg, intakeSvc, moderationSvc, clock)

	monitor := liveness.NewMonitor(reg, clock, cfg.LivenessInterval)
	monitor.Start()

	srv := server.NewServer(cfg, reg, intakeSvc, moderationSvc, gateway, pool)

	done := runGracefulShutdown(srv, monitor, reg)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
