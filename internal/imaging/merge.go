package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"time"

	"golang.org/x/sync/errgroup"

	"lookbook/internal/domain"
	"lookbook/internal/infra"
	"lookbook/internal/storage"
)

// fetchConcurrency bounds parallel image downloads per merge.
const fetchConcurrency = 4

// Merger builds a single 3:4 grid image out of product images. Individual
// download or decode failures drop the affected tile; the merge only yields no
// result when every tile is lost.
type Merger struct {
	fetcher *Fetcher
	logger  infra.Logger
	debug   *storage.FileStore
}

// NewMerger constructs a Merger. debug may be nil to disable local dumps of
// merged images.
func NewMerger(fetcher *Fetcher, logger infra.Logger, debug *storage.FileStore) *Merger {
	return &Merger{fetcher: fetcher, logger: logger, debug: debug}
}

// Merge downloads and normalizes every product image concurrently, then
// composites the surviving tiles onto a white 3:4 canvas encoded as JPEG.
// Tile order always follows product order regardless of download completion
// order. A (nil, nil) return means no tile survived; callers must treat that
// as "cannot proceed", distinct from an error.
func (m *Merger) Merge(ctx context.Context, products []domain.Product) ([]byte, error) {
	if len(products) == 0 {
		return nil, nil
	}

	tiles := make([][]byte, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			raw, err := m.fetcher.Fetch(gctx, p.ImageURL)
			if err != nil {
				m.logger.Warn().Err(err).Str("title", p.Title).Msg("merge: image download failed, dropping tile")
				return nil
			}
			tile, err := Normalize(raw)
			if err != nil {
				m.logger.Warn().Err(err).Str("title", p.Title).Str("format", string(Detect(raw))).
					Msg("merge: image normalize failed, dropping tile")
				return nil
			}
			tiles[i] = tile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	survivors := tiles[:0:0]
	for _, t := range tiles {
		if t != nil {
			survivors = append(survivors, t)
		}
	}
	if len(survivors) == 0 {
		m.logger.Warn().Int("products", len(products)).Msg("merge: no usable tiles")
		return nil, nil
	}

	merged, err := composite(survivors)
	if err != nil {
		return nil, err
	}

	m.logger.Debug().
		Int("products", len(products)).
		Int("tiles", len(survivors)).
		Int("bytes", len(merged)).
		Msg("merge: composite built")

	m.saveDebugImage(ctx, merged, len(survivors))
	return merged, nil
}

func composite(tiles [][]byte) ([]byte, error) {
	layout := NewLayout(len(tiles))

	canvas := image.NewRGBA(image.Rect(0, 0, layout.CanvasW, layout.CanvasH))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{white}, image.Point{}, draw.Src)

	for i, tile := range tiles {
		img, _, err := image.Decode(bytes.NewReader(tile))
		if err != nil {
			return nil, fmt.Errorf("decode tile %d: %w", i, err)
		}
		x, y := layout.TilePosition(i)
		rect := image.Rect(x, y, x+TileSize, y+TileSize)
		draw.Draw(canvas, rect, img, img.Bounds().Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode composite: %w", err)
	}
	return buf.Bytes(), nil
}

// saveDebugImage dumps the merged JPEG to the debug store. Best effort only.
func (m *Merger) saveDebugImage(ctx context.Context, merged []byte, tileCount int) {
	if m.debug == nil {
		return
	}
	key := fmt.Sprintf("merged-products-%d-%s.jpg", tileCount, time.Now().UTC().Format("2006-01-02T15-04-05"))
	if _, err := m.debug.Write(ctx, key, merged); err != nil {
		m.logger.Warn().Err(err).Msg("merge: debug image save failed")
		return
	}
	m.logger.Debug().Str("key", key).Msg("merge: debug image saved")
}
