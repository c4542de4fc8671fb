package main

import (
	"GridForge/internal/config"
	"GridForge/internal/logging"
	"GridForge/internal/pipeline"
	"GridForge/internal/pipeline/storage"
	"GridForge/internal/sdk"
	"GridForge/pkg/ffmpeg"
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// Runs a Temporal worker for grid compositions. With two arguments,
// <root> <output>, it also submits one composition and logs the result.
func main() {
	configPath := pflag.String("config", "config.yaml", "Path to the YAML config file")
	pflag.Parse()

	bootstrap, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cfg, err := config.NewConfigLoader(bootstrap).Load(*configPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		bootstrap.Fatal("Failed to create logger", zap.Error(err))
	}
	defer logger.Sync()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	st, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create storage", zap.Error(err))
	}
	runner := ffmpeg.NewFFmpeg(cfg.Pipeline.FFMpegPath)
	activities := sdk.NewClient(cfg, runner, st, logger).Activities()

	temporalWorkflow := pipeline.NewTemporalWorkflow(temporalClient, cfg.Temporal.TaskQueue, st != nil, activities, logger)
	if err := temporalWorkflow.StartWorker(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer temporalWorkflow.StopWorker()

	logger.Info("Temporal worker started successfully", zap.String("task_queue", cfg.Temporal.TaskQueue))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if pflag.NArg() == 2 {
		req := pipeline.Request{Root: pflag.Arg(0), Output: pflag.Arg(1)}
		result, err := temporalWorkflow.Run(ctx, req)
		switch {
		case errors.Is(err, pipeline.ErrNoInputs):
			logger.Warn("No video files found", zap.String("root", req.Root))
		case err != nil:
			logger.Error("Workflow execution failed", zap.Error(err))
		default:
			logger.Info("Workflow completed successfully",
				zap.String("output", result.Output),
				zap.Int("inputs", len(result.Inputs)),
				zap.Int("grid_size", result.GridSize),
				zap.String("storage_key", result.StorageKey),
				zap.Duration("duration", result.Duration))
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down...")
}
