package config

import (
	types "GridForge/pkg"

	"github.com/spf13/pflag"
)

// flagKeys maps CLI flag names to their config keys.
var flagKeys = map[string]string{
	"tile-width":    "compose.tile_width",
	"tile-height":   "compose.tile_height",
	"video-codec":   "compose.video_codec",
	"preset":        "compose.preset",
	"quality":       "compose.quality",
	"audio-codec":   "compose.audio_codec",
	"audio-bitrate": "compose.audio_bitrate",
	"overwrite":     "compose.overwrite",
	"keep-partial":  "compose.keep_partial_output",
	"ignore-case":   "discovery.case_insensitive",
	"sort":          "discovery.sort",
	"strict":        "discovery.strict",
	"ffmpeg":        "pipeline.ffmpeg_path",
	"log-level":     "logging.level",
}

// DefineFlags registers the config-backed flags on fs. Only flags the user
// actually sets override the file and environment.
func DefineFlags(fs *pflag.FlagSet) {
	d := types.DefaultComposeConfig()
	fs.Int("tile-width", d.TileWidth, "Tile width in pixels")
	fs.Int("tile-height", d.TileHeight, "Tile height in pixels")
	fs.String("video-codec", d.VideoCodec, "Video encoder name")
	fs.String("preset", d.Preset, "Encoder preset")
	fs.IntP("quality", "q", d.Quality, "Quality value passed as -crf")
	fs.String("audio-codec", d.AudioCodec, "Audio encoder name")
	fs.String("audio-bitrate", d.AudioBitrate, "Audio bitrate, e.g. 192k")
	fs.Bool("overwrite", d.Overwrite, "Overwrite the output file if it exists")
	fs.Bool("keep-partial", d.KeepPartialOutput, "Keep a partially written output after a failed run")
	fs.Bool("ignore-case", false, "Match video extensions case-insensitively")
	fs.Bool("sort", true, "Sort discovered files by path before layout")
	fs.Bool("strict", false, "Abort discovery on unreadable subdirectories")
	fs.String("ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	fs.String("log-level", "info", "Log level: debug | info | warn | error")
}
