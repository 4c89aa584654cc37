package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lookbook/internal/imaging"
)

// Full pipeline through the merge endpoint: four reachable product images and
// one broken URL must still yield a composite.
func TestMergeProductsEndToEndWithBrokenURL(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var tile bytes.Buffer
	if err := png.Encode(&tile, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/broken") {
			http.NotFound(w, r)
			return
		}
		w.Write(tile.Bytes())
	}))
	t.Cleanup(srv.Close)

	app := testApp()
	app.Merger = imaging.NewMerger(imaging.NewFetcher(srv.Client()), zerolog.New(io.Discard), nil)

	var products []string
	for i := 0; i < 4; i++ {
		products = append(products, fmt.Sprintf(
			`{"title":"item %d","price":10,"imageUrl":"%s/tile%d.png","productUrl":"https://shop.test/%d"}`,
			i, srv.URL, i, i))
	}
	products = append(products, fmt.Sprintf(
		`{"title":"broken","price":10,"imageUrl":"%s/broken.png","productUrl":"https://shop.test/broken"}`, srv.URL))

	body := fmt.Sprintf(`{"products":[%s]}`, strings.Join(products, ","))
	rec := httptest.NewRecorder()
	app.MergeProducts(rec, httptest.NewRequest(http.MethodPost, "/api/preview-outfit-image/merge", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			MergedImageBuffer string `json:"mergedImageBuffer"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data.MergedImageBuffer)
	if err != nil {
		t.Fatalf("decode buffer: %v", err)
	}
	composite, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	// Four tiles lay out as a full row of three plus one.
	bounds := composite.Bounds()
	if bounds.Dx() < 3*400 {
		t.Errorf("composite width = %d, want at least 1200", bounds.Dx())
	}
}
