package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"lookbook/internal/domain"
)

func testMerger(t *testing.T, handler http.Handler) (*Merger, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := zerolog.New(io.Discard)
	return NewMerger(NewFetcher(srv.Client()), logger, nil), srv
}

func tileServer(t *testing.T, colors map[string]color.RGBA) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := colors[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(encodePNG(t, 300, 300, c))
	})
}

func products(srv *httptest.Server, paths ...string) []domain.Product {
	out := make([]domain.Product, len(paths))
	for i, p := range paths {
		out[i] = domain.Product{
			Title:      p,
			Price:      10,
			ImageURL:   srv.URL + p,
			ProductURL: "https://shop.example.com" + p,
		}
	}
	return out
}

func TestMergeSurvivesPartialDownloadFailures(t *testing.T) {
	red := color.RGBA{R: 0xFF, A: 0xFF}
	green := color.RGBA{G: 0xFF, A: 0xFF}
	blue := color.RGBA{B: 0xFF, A: 0xFF}
	m, srv := testMerger(t, tileServer(t, map[string]color.RGBA{
		"/a.png": red, "/c.png": green, "/e.png": blue,
	}))

	// b and d 404; three tiles survive.
	merged, err := m.Merge(context.Background(), products(srv, "/a.png", "/b.png", "/c.png", "/d.png", "/e.png"))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if merged == nil {
		t.Fatalf("Merge returned no result despite surviving tiles")
	}
	if Detect(merged) != FormatJPEG {
		t.Fatalf("merged image is %q, want jpeg", Detect(merged))
	}

	img, _, err := image.Decode(bytes.NewReader(merged))
	if err != nil {
		t.Fatalf("decode merged: %v", err)
	}
	layout := NewLayout(3)
	if img.Bounds().Dx() != layout.CanvasW || img.Bounds().Dy() != layout.CanvasH {
		t.Fatalf("canvas = %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), layout.CanvasW, layout.CanvasH)
	}

	// Survivors keep input order: a, c, e left to right.
	for i, want := range []color.RGBA{red, green, blue} {
		x, y := layout.TilePosition(i)
		assertNear(t, img.At(x+TileSize/2, y+TileSize/2), want.R, want.G, want.B)
	}
}

func TestMergeNoResultWhenAllDownloadsFail(t *testing.T) {
	m, srv := testMerger(t, http.NotFoundHandler())

	merged, err := m.Merge(context.Background(), products(srv, "/a.png", "/b.png", "/c.png", "/d.png", "/e.png"))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if merged != nil {
		t.Fatalf("Merge produced %d bytes from zero usable tiles", len(merged))
	}
}

func TestMergeDropsUndecodableImages(t *testing.T) {
	red := color.RGBA{R: 0xFF, A: 0xFF}
	m, srv := testMerger(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			_, _ = w.Write(encodePNG(t, 64, 64, red))
			return
		}
		_, _ = w.Write([]byte("this is not an image"))
	}))

	merged, err := m.Merge(context.Background(), products(srv, "/broken.bin", "/ok.png"))
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if merged == nil {
		t.Fatalf("Merge returned no result, want composite from the decodable image")
	}
	img, _, err := image.Decode(bytes.NewReader(merged))
	if err != nil {
		t.Fatalf("decode merged: %v", err)
	}
	layout := NewLayout(1)
	if img.Bounds().Dx() != layout.CanvasW || img.Bounds().Dy() != layout.CanvasH {
		t.Fatalf("canvas = %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), layout.CanvasW, layout.CanvasH)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	m, _ := testMerger(t, http.NotFoundHandler())
	merged, err := m.Merge(context.Background(), nil)
	if err != nil || merged != nil {
		t.Fatalf("Merge(nil) = (%v, %v), want (nil, nil)", merged, err)
	}
}
