package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/boqrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/export"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/invoice"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/match"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/run"
	"github.com/MrJamesThe3rd/boqrecon/internal/metrics"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// Health reports whether dependencies are reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

func New(
	opts Options,
	m *metrics.Metrics,
	runsV1 *run.Handler,
	invoicesV1 *invoice.Handler,
	matchesV1 *match.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				respond.Message(w, http.StatusServiceUnavailable, "unhealthy")

				return
			}
		}

		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/api/v1/runs", func(r chi.Router) {
		r.Use(auth.Middleware(opts.JWTSecret))

		runsV1.Routes(r)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(runsV1.RequireOwner)

			runsV1.ItemRoutes(r)
			matchesV1.Routes(r)
			r.Route("/invoice-items", invoicesV1.Routes)
			r.Route("/export", exportV1.Routes)
		})
	})

	return router
}
