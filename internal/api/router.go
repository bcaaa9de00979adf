package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/video-stream/transcriber/internal/api/handlers"
	"github.com/video-stream/transcriber/internal/api/middleware"
	"github.com/video-stream/transcriber/internal/config"
	"github.com/video-stream/transcriber/internal/device"
)

// Deps are the services the HTTP layer needs.
type Deps struct {
	Runner  handlers.JobRunner
	History handlers.HistoryStore
	Engines handlers.EngineLister
	Device  device.Info
}

// NewRouter builds the HTTP handler. The returned RateLimiter is nil unless
// cfg.RateLimit is positive; callers should Stop it on shutdown.
func NewRouter(cfg *config.Config, deps Deps) (*chi.Mux, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	transcribeHandler := handlers.NewTranscribeHandler(deps.Runner, cfg.DefaultModel)
	historyHandler := handlers.NewHistoryHandler(deps.History)
	deviceHandler := handlers.NewDeviceHandler(deps.Device, deps.Engines)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	}

	r.Get("/", handlers.Welcome)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Use(middleware.MaxBodySize(middleware.DefaultMaxBody))
		r.Post("/transcribe", transcribeHandler.Transcribe)
	})

	r.Get("/history", historyHandler.List)
	r.Get("/history/{id}", historyHandler.Get)
	r.Get("/device", deviceHandler.Device)

	staticHandler := handlers.NewStaticHandler(cfg.StaticPath)
	r.Get("/static", staticHandler.RedirectRoot)
	r.Get("/static/*", staticHandler.Serve)

	return r, limiter
}
