package ffmpeg

import (
	types "GridForge/pkg"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ComposeArgs builds the argument vector (without the binary name) that
// tiles inputs into output. The filter graph is derived from the input
// count and cfg's tile size.
func ComposeArgs(inputs []string, output string, cfg types.ComposeConfig) ([]string, error) {
	if len(inputs) == 0 {
		return nil, errors.New("at least one input is required")
	}
	if output == "" {
		return nil, errors.New("output path is required")
	}
	if cfg.TileWidth <= 0 || cfg.TileHeight <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %dx%d", cfg.TileWidth, cfg.TileHeight)
	}

	layout := NewLayout(len(inputs), cfg.TileWidth, cfg.TileHeight)
	args := make([]string, 0, 2*len(inputs)+16)

	// Overwrite policy
	if cfg.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	// Inputs, in layout order
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	// Graph and output maps
	args = append(args,
		"-filter_complex", FilterGraph(layout),
		"-map", "["+VideoOutLabel+"]",
		"-map", "["+AudioOutLabel+"]",
	)

	// Encode parameters
	args = append(args,
		"-c:v", cfg.VideoCodec,
		"-preset", cfg.Preset,
		"-crf", strconv.Itoa(cfg.Quality),
		"-c:a", cfg.AudioCodec,
		"-b:a", cfg.AudioBitrate,
	)

	return append(args, output), nil
}

// CommandLine renders binary and args as a shell-pasteable string.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\|;&$[]()*?<>") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
