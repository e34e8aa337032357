package api

import (
	"context"
	"net/http"
	"time"

	"social-support-intake/internal/common/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a backing service can take traffic.
type ReadinessCheck func(ctx context.Context) error

// NewRouter mounts the wizard API under /api/v1 next to the health, readiness and metrics
// endpoints.
func NewRouter(h *Handler, log logger.Logger, checks map[string]ReadinessCheck) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recovery(log))
	r.Use(RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Get("/ready", readyHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/registry", h.Registry)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
			r.Post("/reset", h.Reset)
			r.Post("/locale/toggle", h.ToggleLocale)
			r.Post("/fields/{field}/validate", h.ValidateField)

			r.Post("/suggestions/{field}", h.RequestSuggestion)
			r.Put("/suggestion", h.EditSuggestion)
			r.Post("/suggestion/accept", h.AcceptSuggestion)
			r.Post("/suggestion/discard", h.DiscardSuggestion)
		})
	})

	return r
}

func readyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"failed": failed,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
