package types

// ComposeConfig holds the fixed encode parameters and tile geometry for a
// grid composition. Every field can be overridden per run.
type ComposeConfig struct {
	TileWidth         int    `mapstructure:"tile_width" json:"tile_width"`
	TileHeight        int    `mapstructure:"tile_height" json:"tile_height"`
	VideoCodec        string `mapstructure:"video_codec" json:"video_codec"`
	Preset            string `mapstructure:"preset" json:"preset"`
	Quality           int    `mapstructure:"quality" json:"quality"`
	AudioCodec        string `mapstructure:"audio_codec" json:"audio_codec"`
	AudioBitrate      string `mapstructure:"audio_bitrate" json:"audio_bitrate"`
	Overwrite         bool   `mapstructure:"overwrite" json:"overwrite"`
	KeepPartialOutput bool   `mapstructure:"keep_partial_output" json:"keep_partial_output"`
}

// DefaultComposeConfig returns the stock 320x240 tile setup.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		TileWidth:    320,
		TileHeight:   240,
		VideoCodec:   "h264_nvenc",
		Preset:       "fast",
		Quality:      18,
		AudioCodec:   "aac",
		AudioBitrate: "192k",
		Overwrite:    true,
	}
}

type DiscoveryConfig struct {
	Extensions      []string `mapstructure:"extensions" json:"extensions"`
	CaseInsensitive bool     `mapstructure:"case_insensitive" json:"case_insensitive"`
	Sort            bool     `mapstructure:"sort" json:"sort"`
	Strict          bool     `mapstructure:"strict" json:"strict"`
}

// DefaultExtensions is the container allow-list used when none is configured.
func DefaultExtensions() []string {
	return []string{".mp4", ".mov", ".avi", ".mkv", ".flv"}
}

type PipelineConfig struct {
	FFMpegPath string      `mapstructure:"ffmpeg_path" json:"ffmpeg_path"`
	Retry      RetryConfig `mapstructure:"retry" json:"retry"`
}

type RetryConfig struct {
	MaxAttempts        int32   `mapstructure:"max_attempts" json:"max_attempts"`
	InitialIntervalSec float64 `mapstructure:"initial_interval_sec" json:"initial_interval_sec"`
	BackoffCoefficient float64 `mapstructure:"backoff_coefficient" json:"backoff_coefficient"`
}

type StorageConfig struct {
	Type   string      `mapstructure:"type" json:"type"`
	Bucket string      `mapstructure:"bucket" json:"bucket"`
	Prefix string      `mapstructure:"prefix" json:"prefix"`
	Local  LocalConfig `mapstructure:"local" json:"local"`
	S3     S3Config    `mapstructure:"s3" json:"s3"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

type S3Config struct {
	Region          string `mapstructure:"region" json:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port" json:"host_port"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
	TaskQueue string `mapstructure:"task_queue" json:"task_queue"`
}

// ServerConfig configures the HTTP API. Request roots must lie under
// InputRoot and outputs under OutputDir.
type ServerConfig struct {
	Addr              string   `mapstructure:"addr" json:"addr"`
	MaxConcurrentJobs int      `mapstructure:"max_concurrent_jobs" json:"max_concurrent_jobs"`
	UseTemporal       bool     `mapstructure:"use_temporal" json:"use_temporal"`
	InputRoot         string   `mapstructure:"input_root" json:"input_root"`
	OutputDir         string   `mapstructure:"output_dir" json:"output_dir"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" json:"allowed_origins"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Output   string `mapstructure:"output" json:"output"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}
