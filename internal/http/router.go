package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"lookbook/internal/http/handlers"
	"lookbook/internal/infra"
	"lookbook/internal/middleware"
)

// NewRouter wires the API routes and middleware chain.
func NewRouter(cfg *infra.Config, log infra.Logger, app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Post("/recommend-products", app.RecommendProducts)

		r.Route("/preview-outfit-image", func(r chi.Router) {
			r.Post("/", app.PreviewOutfitImage)
			if app.MergeEnabled {
				r.Post("/merge", app.MergeProducts)
			}
		})

		r.Route("/video-generation", func(r chi.Router) {
			r.Post("/create", app.VideoCreate)
			r.Get("/status/{taskId}", app.VideoStatus)
		})
	})

	return r
}
