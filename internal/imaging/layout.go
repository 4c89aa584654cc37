package imaging

import "math"

const (
	imagesPerRow = 3
	padding      = 10

	// targetAspectRatio is width:height of the merged canvas.
	targetAspectRatio = 3.0 / 4.0
)

// Layout describes the grid geometry for a merged product image.
type Layout struct {
	Rows, Cols         int
	ContentW, ContentH int
	CanvasW, CanvasH   int
	OffsetX, OffsetY   int
}

// NewLayout computes the grid layout for n tiles. The canvas is expanded,
// never shrunk, from the raw content dimensions until its aspect ratio matches
// the 3:4 target, and the content is centered inside it.
func NewLayout(n int) Layout {
	l := Layout{
		Cols: min(n, imagesPerRow),
		Rows: (n + imagesPerRow - 1) / imagesPerRow,
	}

	l.ContentW = l.Cols*TileSize + (l.Cols+1)*padding
	l.ContentH = l.Rows*TileSize + (l.Rows+1)*padding

	l.CanvasW, l.CanvasH = l.ContentW, l.ContentH
	ratio := float64(l.CanvasW) / float64(l.CanvasH)
	if ratio > targetAspectRatio {
		l.CanvasH = int(math.Ceil(float64(l.CanvasW) / targetAspectRatio))
	} else if ratio < targetAspectRatio {
		l.CanvasW = int(math.Ceil(float64(l.CanvasH) * targetAspectRatio))
	}

	l.OffsetX = (l.CanvasW - l.ContentW) / 2
	l.OffsetY = (l.CanvasH - l.ContentH) / 2
	return l
}

// TilePosition returns the top-left pixel of tile i (0-indexed, input order).
func (l Layout) TilePosition(i int) (x, y int) {
	row := i / imagesPerRow
	col := i % imagesPerRow
	x = col*TileSize + (col+1)*padding + l.OffsetX
	y = row*TileSize + (row+1)*padding + l.OffsetY
	return x, y
}
