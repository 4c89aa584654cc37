package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lookbook/internal/domain"
	"lookbook/internal/imaging"
	"lookbook/internal/providers/preview"
)

type previewResponse struct {
	OutfitPreviewImageBuffer string `json:"outfitPreviewImageBuffer"`
}

type mergeRequest struct {
	Products []domain.Product `json:"products"`
}

type mergeResponse struct {
	MergedImageBuffer string `json:"mergedImageBuffer"`
}

// PreviewOutfitImage accepts a multipart form with the user's photo, the
// selected products and the event description, and returns the generated
// try-on image base64-encoded.
func (a *App) PreviewOutfitImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form or image too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "No image file provided")
		return
	}
	defer file.Close()
	if header.Size > a.MaxUploadBytes {
		a.error(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("image exceeds the %dMB upload limit", a.MaxUploadBytes>>20))
		return
	}
	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		a.error(w, http.StatusBadRequest, "bad_request", "only image uploads are accepted")
		return
	}
	photo, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "could not read uploaded image")
		return
	}
	// The declared content type only gates the upload; the MIME passed along
	// comes from the byte signature.
	photoMIME := imaging.Detect(photo).MIME()

	products, errMsg := decodeProducts(r.FormValue("products"))
	if errMsg != "" {
		a.error(w, http.StatusBadRequest, "bad_request", errMsg)
		return
	}
	event := r.FormValue("eventDescription")
	if strings.TrimSpace(event) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "eventDescription is required")
		return
	}

	res, err := a.Preview.Generate(r.Context(), photo, photoMIME, event, products)
	if err != nil {
		a.previewError(w, err)
		return
	}
	a.success(w, http.StatusOK, previewResponse{
		OutfitPreviewImageBuffer: base64.StdEncoding.EncodeToString(res.Data),
	})
}

// MergeProducts composites the submitted product images into one grid and
// returns it base64-encoded. Debug aid, only routed when explicitly enabled.
func (a *App) MergeProducts(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if errMsg := validateProducts(req.Products); errMsg != "" {
		a.error(w, http.StatusBadRequest, "bad_request", errMsg)
		return
	}

	merged, err := a.Merger.Merge(r.Context(), req.Products)
	if err != nil {
		a.Log.Error().Err(err).Msg("merge failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if merged == nil {
		a.error(w, http.StatusInternalServerError, "internal", "none of the product images could be retrieved")
		return
	}
	a.success(w, http.StatusOK, mergeResponse{
		MergedImageBuffer: base64.StdEncoding.EncodeToString(merged),
	})
}

// decodeProducts parses and validates a JSON-encoded product array. Returns
// a non-empty message on the first validation failure.
func decodeProducts(raw string) ([]domain.Product, string) {
	if strings.TrimSpace(raw) == "" {
		return nil, "products is required"
	}
	var products []domain.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, "products must be a valid JSON array"
	}
	if msg := validateProducts(products); msg != "" {
		return nil, msg
	}
	return products, ""
}

func validateProducts(products []domain.Product) string {
	if len(products) == 0 {
		return "products array is empty"
	}
	for i, p := range products {
		if !p.Valid() {
			return fmt.Sprintf("products[%d] is missing a title, positive price, imageUrl or productUrl", i)
		}
	}
	return ""
}

func (a *App) previewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preview.ErrMissingPhoto),
		errors.Is(err, preview.ErrMissingEvent),
		errors.Is(err, preview.ErrNoProducts):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.Log.Error().Err(err).Msg("outfit preview failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
