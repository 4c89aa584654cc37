package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	// Decoders for the formats the shopping sources actually deliver.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// TileSize is the square cell every normalized product image fits into.
	TileSize = 400

	jpegQuality = 90
)

var white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// Normalize resizes an image to fit within a TileSize square preserving aspect
// ratio, pads the remainder with a white background and re-encodes it as JPEG.
// Corrupt or undecodable input (including HEIC/HEIF, which has no pure-Go
// decoder) yields an error; batch callers drop the item rather than aborting.
func Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	tile := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(tile, tile.Bounds(), &image.Uniform{white}, image.Point{}, draw.Src)

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	// Contain fit: scale the longer edge down to TileSize, center the rest.
	dstW, dstH := TileSize, TileSize
	if srcW > srcH {
		dstH = srcH * TileSize / srcW
	} else if srcH > srcW {
		dstW = srcW * TileSize / srcH
	}
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	offsetX := (TileSize - dstW) / 2
	offsetY := (TileSize - dstH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+dstW, offsetY+dstH)

	xdraw.CatmullRom.Scale(tile, target, src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, tile, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	return buf.Bytes(), nil
}
