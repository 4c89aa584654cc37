package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lookbook/internal/domain"
	"lookbook/internal/imaging"
)

type fakeModel struct {
	gotInstruction string
	gotImages      []InlineImage
	data           []byte
	mime           string
	err            error
}

func (f *fakeModel) GenerateImage(ctx context.Context, instruction string, images []InlineImage) ([]byte, string, error) {
	f.gotInstruction = instruction
	f.gotImages = images
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, f.mime, nil
}

func tilePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testGenerator(t *testing.T, model ImageGenerator) (*Generator, *httptest.Server) {
	t.Helper()
	tile := tilePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tile)
	}))
	t.Cleanup(srv.Close)
	merger := imaging.NewMerger(imaging.NewFetcher(srv.Client()), zerolog.New(io.Discard), nil)
	return NewGenerator(merger, model, zerolog.New(io.Discard)), srv
}

func sampleProducts(srv *httptest.Server, n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			Title:      "item",
			Price:      10,
			ImageURL:   srv.URL + "/tile.png",
			ProductURL: "https://shop.test/item",
		}
	}
	return products
}

func TestGenerateAttachesPhotoThenGrid(t *testing.T) {
	model := &fakeModel{data: []byte("preview-bytes"), mime: "image/png"}
	gen, srv := testGenerator(t, model)

	photo := []byte("user-photo")
	res, err := gen.Generate(context.Background(), photo, "image/jpeg", "summer wedding", sampleProducts(srv, 2))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(res.Data) != "preview-bytes" || res.MIMEType != "image/png" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(model.gotImages) != 2 {
		t.Fatalf("attached %d images, want 2", len(model.gotImages))
	}
	if !bytes.Equal(model.gotImages[0].Data, photo) {
		t.Error("first attachment is not the user photo")
	}
	if model.gotImages[1].MIMEType != "image/jpeg" || len(model.gotImages[1].Data) == 0 {
		t.Error("second attachment is not the merged grid")
	}
	if !strings.Contains(model.gotInstruction, "summer wedding") {
		t.Errorf("instruction missing event: %q", model.gotInstruction)
	}
}

func TestGenerateValidationOrder(t *testing.T) {
	model := &fakeModel{data: []byte("x"), mime: "image/png"}
	gen, srv := testGenerator(t, model)
	products := sampleProducts(srv, 1)

	cases := []struct {
		name     string
		photo    []byte
		event    string
		products []domain.Product
		want     error
	}{
		{"missing_photo", nil, "party", products, ErrMissingPhoto},
		{"missing_event", []byte("p"), "  ", products, ErrMissingEvent},
		{"missing_products", []byte("p"), "party", nil, ErrNoProducts},
		{"photo_wins_over_event", nil, "", nil, ErrMissingPhoto},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gen.Generate(context.Background(), tc.photo, "image/png", tc.event, tc.products)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestGenerateFailsWhenNoProductImageSurvives(t *testing.T) {
	model := &fakeModel{data: []byte("x"), mime: "image/png"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	merger := imaging.NewMerger(imaging.NewFetcher(srv.Client()), zerolog.New(io.Discard), nil)
	gen := NewGenerator(merger, model, zerolog.New(io.Discard))

	_, err := gen.Generate(context.Background(), []byte("p"), "image/png", "party", sampleProducts(srv, 2))
	if !errors.Is(err, ErrNoUsableImages) {
		t.Fatalf("err = %v, want ErrNoUsableImages", err)
	}
}

func TestGeneratePropagatesModelFailure(t *testing.T) {
	model := &fakeModel{err: ErrNoImageData}
	gen, srv := testGenerator(t, model)

	_, err := gen.Generate(context.Background(), []byte("p"), "image/png", "party", sampleProducts(srv, 1))
	if !errors.Is(err, ErrNoImageData) {
		t.Fatalf("err = %v, want ErrNoImageData", err)
	}
}
