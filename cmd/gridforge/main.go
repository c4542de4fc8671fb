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
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

// Exit codes.
const (
	exitOK          = 0
	exitComposeFail = 1
	exitUsage       = 2
	exitNoInputs    = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("gridforge", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: gridforge [flags] <root> <output>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Tiles every video found under <root> into one grid video at <output>.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "config.yaml", "Path to the YAML config file")
	dryRun := fs.Bool("dry-run", false, "Print the ffmpeg command without running it")
	quiet := fs.Bool("quiet", false, "Do not stream ffmpeg output to stderr")
	showVersion := fs.Bool("version", false, "Print version and exit")
	config.DefineFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "gridforge %s\n", version)
		return exitOK
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}
	root, output := fs.Arg(0), fs.Arg(1)

	bootstrap, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(stderr, "error: can't initialize zap logger: %v\n", err)
		return exitUsage
	}
	defer bootstrap.Sync()

	loader := config.NewConfigLoader(bootstrap)
	if err := loader.BindFlags(fs); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	path := *configPath
	if _, statErr := os.Stat(path); statErr != nil && !fs.Changed("config") {
		path = "" // the default config file is optional
	}
	cfg, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()

	st, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Error("Failed to init storage", zap.Error(err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	runner := ffmpeg.NewFFmpeg(cfg.Pipeline.FFMpegPath)
	if !*quiet {
		runner = runner.WithPassthrough(stderr)
	}
	client := sdk.NewClient(cfg, runner, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		return printPlan(ctx, client, runner.Path(), root, output, stdout, stderr)
	}

	result, err := client.RunWorkflow(ctx, root, output)
	return report(result, err, output, *quiet, stdout, stderr)
}

func printPlan(ctx context.Context, client *sdk.Client, binary, root, output string, stdout, stderr io.Writer) int {
	inputs, err := client.DiscoverVideos(ctx, root)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stdout, "No video files found.")
		return exitNoInputs
	}
	plan, err := client.PlanGrid(inputs, output)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	fmt.Fprintln(stdout, ffmpeg.CommandLine(binary, plan.Args))
	return exitOK
}

func report(result *pipeline.Result, err error, output string, quiet bool, stdout, stderr io.Writer) int {
	var discErr *pipeline.DiscoveryError
	var compErr *pipeline.CompositionError
	var pubErr *pipeline.PublishError
	switch {
	case err == nil:
		fmt.Fprintf(stdout, "Output video saved as %s\n", output)
		return exitOK
	case errors.Is(err, pipeline.ErrNoInputs):
		fmt.Fprintln(stdout, "No video files found.")
		return exitNoInputs
	case errors.As(err, &discErr):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	case errors.As(err, &compErr):
		// Without passthrough the diagnostic has not been shown yet.
		if quiet && compErr.Diagnostic != "" {
			fmt.Fprintln(stderr, compErr.Diagnostic)
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitComposeFail
	case errors.As(err, &pubErr):
		fmt.Fprintf(stdout, "Output video saved as %s\n", output)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitComposeFail
	}
	if result != nil && result.State == pipeline.StateSucceeded {
		fmt.Fprintf(stdout, "Output video saved as %s\n", output)
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitComposeFail
}
