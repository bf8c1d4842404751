package httpserver

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"hfproxy-gateway/internal/handlers"
	"hfproxy-gateway/internal/metrics"
	"hfproxy-gateway/internal/middleware"
)

func SetupRouter(
	r *chi.Mux,
	baseLogger *zap.Logger,
	chatHandler *handlers.ChatHandler,
	modelsHandler *handlers.ModelsHandler,
	systemHandler *handlers.SystemHandler,
) {
	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())              // panic recovery
	r.Use(middleware.MaxBodySize(2*1024*1024)) // 2 MB max body

	// routes
	r.Route("/v1", func(r chi.Router) {
		// No timeout on the chat route: simulated pacing and pass-through
		// relay legitimately outlive any fixed deadline.
		r.Post("/chat/completions", chatHandler.ChatCompletion)

		r.With(middleware.Timeout(10 * time.Second)).Get("/models", modelsHandler.List)
	})

	r.With(middleware.Timeout(5 * time.Second)).Get("/health", systemHandler.Health)
	r.With(middleware.Timeout(5 * time.Second)).Get("/stats", systemHandler.StatsSnapshot)

	r.Handle("/metrics", metrics.Handler())
}
