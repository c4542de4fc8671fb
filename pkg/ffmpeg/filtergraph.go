package ffmpeg

import (
	"fmt"
	"strings"
)

// Output pad labels of the generated graph, used by the -map arguments.
const (
	VideoOutLabel = "xstack"
	AudioOutLabel = "mixed_audio"
)

// FilterGraph builds the -filter_complex description for l: one scale per
// input into [v<i>], one xstack over every scaled stream, one amix over
// every input's audio.
func FilterGraph(l Layout) string {
	n := l.Inputs()
	statements := make([]string, 0, n+2)

	for i := 0; i < n; i++ {
		statements = append(statements, fmt.Sprintf("[%d:v]scale=%d:%d[v%d]", i, l.TileWidth, l.TileHeight, i))
	}

	var video strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&video, "[v%d]", i)
	}
	fmt.Fprintf(&video, "xstack=inputs=%d:layout=%s[%s]", n, l.XStackLayout(), VideoOutLabel)
	statements = append(statements, video.String())

	var audio strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&audio, "[%d:a]", i)
	}
	fmt.Fprintf(&audio, "amix=inputs=%d[%s]", n, AudioOutLabel)
	statements = append(statements, audio.String())

	return strings.Join(statements, ";")
}
