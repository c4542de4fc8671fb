package ffmpeg

import (
	"fmt"
	"math"
	"strings"
)

// Cell is the grid position of one input.
type Cell struct {
	Index int
	Row   int
	Col   int
	X     int
	Y     int
}

// Layout places n inputs on a near-square grid of uniform tiles. Cells are
// in input order; trailing grid positions past n are left empty.
type Layout struct {
	GridSize   int
	Rows       int
	TileWidth  int
	TileHeight int
	Cells      []Cell
}

// GridSize returns ceil(sqrt(n)), the number of grid columns for n inputs.
func GridSize(n int) int {
	if n <= 0 {
		return 0
	}
	g := int(math.Ceil(math.Sqrt(float64(n))))
	// Correct float rounding at perfect squares.
	for g*g < n {
		g++
	}
	for g > 1 && (g-1)*(g-1) >= n {
		g--
	}
	return g
}

func NewLayout(n, tileWidth, tileHeight int) Layout {
	l := Layout{TileWidth: tileWidth, TileHeight: tileHeight}
	if n <= 0 {
		return l
	}
	l.GridSize = GridSize(n)
	l.Rows = (n + l.GridSize - 1) / l.GridSize
	l.Cells = make([]Cell, n)
	for i := range l.Cells {
		row, col := i/l.GridSize, i%l.GridSize
		l.Cells[i] = Cell{
			Index: i,
			Row:   row,
			Col:   col,
			X:     col * tileWidth,
			Y:     row * tileHeight,
		}
	}
	return l
}

// Inputs is the number of placed tiles.
func (l Layout) Inputs() int { return len(l.Cells) }

// Width is the composite canvas width in pixels.
func (l Layout) Width() int { return l.GridSize * l.TileWidth }

// Height is the composite canvas height in pixels.
func (l Layout) Height() int { return l.Rows * l.TileHeight }

// EmptyCells is the number of grid positions with no input.
func (l Layout) EmptyCells() int { return l.GridSize*l.GridSize - len(l.Cells) }

// XStackLayout renders the cells as xstack's pipe-separated "x_y" offsets.
func (l Layout) XStackLayout() string {
	offsets := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		offsets[i] = fmt.Sprintf("%d_%d", c.X, c.Y)
	}
	return strings.Join(offsets, "|")
}
