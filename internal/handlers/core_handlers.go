package handlers

import "net/http"

// HandleHealth reports process health alongside the request counters.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.Metrics.Snapshot()
		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":  "healthy",
			"metrics": snapshot,
		})
	}
}
