package config

import (
	types "GridForge/pkg"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment override, e.g.
// GRIDFORGE_COMPOSE_TILE_WIDTH=640.
const EnvPrefix = "GRIDFORGE"

type ConfigLoader struct {
	logger *zap.Logger
	v      *viper.Viper
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &ConfigLoader{
		logger: logger,
		v:      v,
	}
}

func setDefaults(v *viper.Viper) {
	compose := types.DefaultComposeConfig()
	v.SetDefault("compose.tile_width", compose.TileWidth)
	v.SetDefault("compose.tile_height", compose.TileHeight)
	v.SetDefault("compose.video_codec", compose.VideoCodec)
	v.SetDefault("compose.preset", compose.Preset)
	v.SetDefault("compose.quality", compose.Quality)
	v.SetDefault("compose.audio_codec", compose.AudioCodec)
	v.SetDefault("compose.audio_bitrate", compose.AudioBitrate)
	v.SetDefault("compose.overwrite", compose.Overwrite)
	v.SetDefault("compose.keep_partial_output", compose.KeepPartialOutput)

	v.SetDefault("discovery.extensions", types.DefaultExtensions())
	v.SetDefault("discovery.case_insensitive", false)
	v.SetDefault("discovery.sort", true)
	v.SetDefault("discovery.strict", false)

	v.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	v.SetDefault("pipeline.retry.max_attempts", 3)
	v.SetDefault("pipeline.retry.initial_interval_sec", 1.0)
	v.SetDefault("pipeline.retry.backoff_coefficient", 2.0)

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.local.base_path", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "grid-compose")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_concurrent_jobs", 1)
	v.SetDefault("server.use_temporal", false)
	v.SetDefault("server.input_root", "./videos")
	v.SetDefault("server.output_dir", "./grids")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("logging.file_path", "")
}

// BindFlags binds every flag in fs that has a known config key, so an
// explicitly set flag wins over the config file and environment.
func (cl *ConfigLoader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := cl.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads filePath (optional; empty means defaults plus environment),
// unmarshals and validates the result.
func (cl *ConfigLoader) Load(filePath string) (*Config, error) {
	if filePath != "" {
		cl.v.SetConfigFile(filePath)
		if err := cl.v.ReadInConfig(); err != nil {
			cl.logger.Error("Failed to read config file", zap.String("file", filePath), zap.Error(err))
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := cl.v.Unmarshal(&cfg); err != nil {
		cl.logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validate(&cfg); err != nil {
		cl.logger.Error("Config validation failed", zap.Error(err))
		return nil, err
	}

	cl.logger.Debug("Config loaded successfully", zap.String("file", filePath))
	return &cfg, nil
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	if err := ValidateCompose(&cfg.Compose); err != nil {
		return err
	}
	if err := validateDiscovery(&cfg.Discovery); err != nil {
		return err
	}

	if cfg.Pipeline.FFMpegPath == "" {
		cfg.Pipeline.FFMpegPath = "ffmpeg" // Default to the one that's in PATH
	}
	if cfg.Pipeline.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be non-negative")
	}
	if cfg.Pipeline.Retry.MaxAttempts == 0 {
		cfg.Pipeline.Retry.MaxAttempts = 3
	}
	if cfg.Pipeline.Retry.InitialIntervalSec <= 0 {
		cfg.Pipeline.Retry.InitialIntervalSec = 1.0
	}
	if cfg.Pipeline.Retry.BackoffCoefficient <= 1 {
		cfg.Pipeline.Retry.BackoffCoefficient = 2.0
	}

	storage := strings.ToLower(cfg.Storage.Type)
	if storage == "" {
		storage = "none"
	}
	cfg.Storage.Type = storage
	switch storage {
	case "none":
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path required for local storage")
		}
	case "s3":
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("s3 bucket required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region required")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3 access_key_id and secret_access_key required")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", storage)
	}

	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "grid-compose"
	}
	if cfg.Server.MaxConcurrentJobs < 0 {
		return fmt.Errorf("server.max_concurrent_jobs must be non-negative")
	}
	if cfg.Server.MaxConcurrentJobs == 0 {
		cfg.Server.MaxConcurrentJobs = 1
	}
	for _, dir := range []*string{&cfg.Server.InputRoot, &cfg.Server.OutputDir} {
		if strings.TrimSpace(*dir) == "" {
			return fmt.Errorf("server.input_root and server.output_dir must not be empty")
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("invalid server directory %q: %w", *dir, err)
		}
		*dir = abs
	}
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			return errors.New("server.allowed_origins must list origins explicitly, not \"*\"")
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	switch cfg.Logging.Output {
	case "console", "json":
	case "file":
		if cfg.Logging.FilePath == "" {
			return fmt.Errorf("file_path required for file logging")
		}
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Logging.Output)
	}

	return nil
}

// ValidateCompose checks a compose config. It is also applied to
// per-request overrides.
func ValidateCompose(c *types.ComposeConfig) error {
	if c.TileWidth <= 0 || c.TileHeight <= 0 {
		return fmt.Errorf("tile size must be positive, got %dx%d", c.TileWidth, c.TileHeight)
	}
	if strings.TrimSpace(c.VideoCodec) == "" {
		return errors.New("video_codec must not be empty")
	}
	if strings.TrimSpace(c.AudioCodec) == "" {
		return errors.New("audio_codec must not be empty")
	}
	if strings.TrimSpace(c.Preset) == "" {
		return errors.New("preset must not be empty")
	}
	if c.Quality < 0 {
		return fmt.Errorf("quality must be non-negative, got %d", c.Quality)
	}
	return validateAudioBitrate(c.AudioBitrate)
}

func validateDiscovery(d *types.DiscoveryConfig) error {
	if len(d.Extensions) == 0 {
		return errors.New("discovery.extensions must not be empty")
	}
	exts := make([]string, 0, len(d.Extensions))
	for _, ext := range d.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return fmt.Errorf("invalid extension %q", ext)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	d.Extensions = exts
	return nil
}

// audioBitratePattern is ffmpeg's bitrate syntax: a number with an optional
// decimal part and an optional k, K or M suffix, e.g. 192k, 128000, 1.5M.
var audioBitratePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKM]?$`)

// validateAudioBitrate checks raw against ffmpeg's syntax. The value is
// passed to -b:a as given, so it is never rewritten.
func validateAudioBitrate(raw string) error {
	if !audioBitratePattern.MatchString(raw) {
		return fmt.Errorf("invalid audio bitrate %q (use an ffmpeg bitrate, e.g. 192k, 128000 or 1M)", raw)
	}
	n, err := strconv.ParseFloat(strings.TrimRight(raw, "kKM"), 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid audio bitrate %q (must be positive)", raw)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	levels := []string{"debug", "info", "warn", "error"}
	for _, l := range levels {
		if strings.ToLower(level) == l {
			return true
		}
	}
	return false
}
