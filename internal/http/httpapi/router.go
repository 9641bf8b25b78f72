package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options tunes the cross-cutting behavior of the router.
type Options struct {
	AllowedOrigins []string
	// RateLimitPerMin caps generate requests per client IP per minute.
	// Zero disables the limiter.
	RateLimitPerMin int
}

// NewRouter mounts the API surface: generation control under /api, raw
// image files under /images, plus health and metrics.
func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/healthz", app.Health)
	r.Method(stdhttp.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			}
			r.Post("/generate", app.Generate)
		})
		r.Get("/status", app.Status)
		r.Get("/gallery", app.Gallery)
		r.Get("/styles", app.Styles)
	})

	r.Get("/images/{provider}/{filename}", app.Image)

	return r
}
