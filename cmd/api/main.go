package main

import (
	"GridForge/internal/api"
	"GridForge/internal/config"
	"GridForge/internal/job"
	"GridForge/internal/logging"
	"GridForge/internal/pipeline"
	"GridForge/internal/pipeline/storage"
	"GridForge/internal/sdk"
	"GridForge/pkg/ffmpeg"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "Path to the YAML config file")
	pflag.Parse()

	bootstrap, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}

	cfg, err := config.NewConfigLoader(bootstrap).Load(*configPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		bootstrap.Fatal("Failed to create logger", zap.Error(err))
	}
	defer func(logger *zap.Logger) {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := jobStore(ctx, cfg, logger)
	defer closeStore()

	executor, closeExecutor := newExecutor(cfg, logger)
	defer closeExecutor()

	server := api.NewServer(executor, job.NewManager(store, logger), cfg, logger)
	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// jobStore uses Postgres when a DSN is configured and memory otherwise.
func jobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (job.Store, func()) {
	if cfg.Database.DSN == "" {
		logger.Info("No database configured, keeping jobs in memory")
		return job.NewMemoryStore(), func() {}
	}
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := job.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare database", zap.Error(err))
	}
	return store, pool.Close
}

// newExecutor runs compositions in-process unless server.use_temporal is
// set, in which case they are handed to a Temporal worker.
func newExecutor(cfg *config.Config, logger *zap.Logger) (pipeline.Executor, func()) {
	if !cfg.Server.UseTemporal {
		st, err := storage.NewStorage(cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to init storage", zap.Error(err))
		}
		runner := ffmpeg.NewFFmpeg(cfg.Pipeline.FFMpegPath)
		return sdk.NewClient(cfg, runner, st, logger).Executor(), func() {}
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	publish := cfg.Storage.Type != "none"
	return pipeline.NewTemporalWorkflow(temporalClient, cfg.Temporal.TaskQueue, publish, nil, logger), temporalClient.Close
}
