package ffmpeg

import (
	types "GridForge/pkg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countFlag(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}

func valueOf(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestFilterGraph_TwoInputs(t *testing.T) {
	got := FilterGraph(NewLayout(2, 320, 240))
	want := "[0:v]scale=320:240[v0];[1:v]scale=320:240[v1];" +
		"[v0][v1]xstack=inputs=2:layout=0_0|320_0[xstack];" +
		"[0:a][1:a]amix=inputs=2[mixed_audio]"
	assert.Equal(t, want, got)
}

func TestFilterGraph_CustomTiles(t *testing.T) {
	got := FilterGraph(NewLayout(3, 640, 360))
	assert.Equal(t, 3, strings.Count(got, "scale=640:360"))
	assert.Contains(t, got, "xstack=inputs=3:layout=0_0|640_0|0_360[xstack]")
	assert.Contains(t, got, "[0:a][1:a][2:a]amix=inputs=3[mixed_audio]")
}

func TestComposeArgs_TwoInputs(t *testing.T) {
	args, err := ComposeArgs([]string{"a.mp4", "dir/b.mkv"}, "out.mp4", types.DefaultComposeConfig())
	require.NoError(t, err)

	want := []string{
		"-y",
		"-i", "a.mp4",
		"-i", "dir/b.mkv",
		"-filter_complex", FilterGraph(NewLayout(2, 320, 240)),
		"-map", "[xstack]",
		"-map", "[mixed_audio]",
		"-c:v", "h264_nvenc",
		"-preset", "fast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		"out.mp4",
	}
	assert.Equal(t, want, args)

	assert.Equal(t, 2, countFlag(args, "-i"))
	graph := valueOf(t, args, "-filter_complex")
	assert.Equal(t, 2, strings.Count(graph, "scale="))
	assert.Equal(t, 1, strings.Count(graph, "xstack=inputs=2"))
	assert.Equal(t, 1, strings.Count(graph, "amix=inputs=2"))
}

func TestComposeArgs_Overrides(t *testing.T) {
	cfg := types.ComposeConfig{
		TileWidth:    160,
		TileHeight:   90,
		VideoCodec:   "libx264",
		Preset:       "veryslow",
		Quality:      0,
		AudioCodec:   "libopus",
		AudioBitrate: "96k",
		Overwrite:    false,
	}
	args, err := ComposeArgs([]string{"x.flv"}, "grid.mkv", cfg)
	require.NoError(t, err)

	assert.Equal(t, "-n", args[0])
	assert.Equal(t, 0, countFlag(args, "-y"))
	assert.Equal(t, "libx264", valueOf(t, args, "-c:v"))
	assert.Equal(t, "veryslow", valueOf(t, args, "-preset"))
	assert.Equal(t, "0", valueOf(t, args, "-crf"))
	assert.Equal(t, "libopus", valueOf(t, args, "-c:a"))
	assert.Equal(t, "96k", valueOf(t, args, "-b:a"))
	assert.Contains(t, valueOf(t, args, "-filter_complex"), "[0:v]scale=160:90[v0]")
	assert.Equal(t, "grid.mkv", args[len(args)-1])
}

func TestComposeArgs_Invalid(t *testing.T) {
	_, err := ComposeArgs(nil, "out.mp4", types.DefaultComposeConfig())
	assert.Error(t, err)

	_, err = ComposeArgs([]string{"a.mp4"}, "", types.DefaultComposeConfig())
	assert.Error(t, err)

	cfg := types.DefaultComposeConfig()
	cfg.TileHeight = 0
	_, err = ComposeArgs([]string{"a.mp4"}, "out.mp4", cfg)
	assert.Error(t, err)
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("ffmpeg", []string{"-i", "my clip.mp4", "-filter_complex", "[0:v]scale=1:1[v0]", "it's.mp4"})
	assert.Equal(t, `ffmpeg -i 'my clip.mp4' -filter_complex '[0:v]scale=1:1[v0]' 'it'\''s.mp4'`, got)
}
