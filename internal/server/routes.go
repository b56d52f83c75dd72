package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"base-token-tracker/internal/observability"
)

// Routes builds the relay's HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", observability.Handler())

	r.With(s.requireScraperAuth).Post("/api/token", s.handleIngest)

	return r
}

// requireScraperAuth rejects requests whose bearer token does not match
// the shared secret exactly. Runs before any body processing.
func (s *Server) requireScraperAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			if s.metrics != nil {
				s.metrics.RecordsRejected.WithLabelValues("unauthorized").Inc()
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
