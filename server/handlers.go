package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/unihelp/admin-bridge/activity"
)

// writeJSON renders v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response body")
	}
}

// writeJSONError renders a uniform error body.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// ErrorPageHandler is the landing spot for denied or failed navigations.
func (s *Server) ErrorPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Access denied or session expired. Please sign in again from the main portal.\n"))
	}
}

// DashboardHandler reports the operator identity and bridge status. It sits
// behind RequireAdmin, so a profile is always present.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, ok := ProfileFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "no profile in context")
			return
		}

		s.recorder.Record(r.Context(), activity.FromRequest(r, profile.ID, activity.EventPageView))

		writeJSON(w, http.StatusOK, map[string]any{
			"appName": s.config.GetAppName(),
			"userId":  profile.ID,
			"role":    profile.Role,
			"channel": s.channel.State().String(),
		})
	}
}

// RealtimeStatusHandler exposes the broker connection state.
func (s *Server) RealtimeStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"state": s.channel.State().String(),
		})
	}
}

// NotFoundHandler handles 404 errors
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "404 - Page not found", http.StatusNotFound)
	}
}
