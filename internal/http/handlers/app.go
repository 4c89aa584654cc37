// Package handlers holds the HTTP layer: request decoding, validation and the
// response envelope around the recommendation, preview and video services.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lookbook/internal/domain"
	"lookbook/internal/infra"
	"lookbook/internal/providers/preview"
	"lookbook/internal/providers/shopping"
	"lookbook/internal/providers/video"
)

// TermSuggester generates retail search phrases from wizard attributes.
type TermSuggester interface {
	SearchTerms(ctx context.Context, age int, gender, eventDescription string) ([]string, error)
}

// ProductSearcher resolves search terms into per-term product listings.
type ProductSearcher interface {
	SearchAll(ctx context.Context, terms []string) ([]shopping.TermResults, error)
}

// PreviewService renders the try-on preview image.
type PreviewService interface {
	Generate(ctx context.Context, photo []byte, photoMIME, eventDescription string, products []domain.Product) (*preview.Result, error)
}

// VideoService submits and tracks image-to-video tasks.
type VideoService interface {
	CreateTask(ctx context.Context, p video.CreateTaskParams) (string, error)
	TaskStatus(ctx context.Context, id string) (*video.Task, error)
}

// ProductMerger composites product images into one grid.
type ProductMerger interface {
	Merge(ctx context.Context, products []domain.Product) ([]byte, error)
}

// App bundles the services behind the HTTP surface. All fields are wired once
// in main and never mutated afterwards.
type App struct {
	Stylist TermSuggester
	Shops   ProductSearcher
	Preview PreviewService
	Video   VideoService
	Merger  ProductMerger

	Log infra.Logger

	MaxUploadBytes int64
	MergeEnabled   bool
}

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) success(w http.ResponseWriter, code int, data any) {
	a.json(w, code, envelope{Success: true, Data: data})
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, envelope{Success: false, Error: errCode, Message: msg})
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, envelope{
		Success:   true,
		Message:   "Outfit recommendation API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers unknown routes with the standard envelope.
func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusNotFound, "not_found", "route not found")
}

// MethodNotAllowed answers wrong-method requests with the standard envelope.
func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
