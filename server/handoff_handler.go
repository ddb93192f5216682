package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/unihelp/admin-bridge/activity"
	"github.com/unihelp/admin-bridge/users"
)

// HandoffHandler receives the session handed over by the main portal.
//
// The portal redirects the operator here with the raw token and the
// serialized user blob as query parameters. Both must be present: the pair is
// stored as-is and the operator is sent on to the landing path with the
// parameters stripped from the address. A partial handoff goes straight to
// the error page, leaving any previously stored session untouched.
func (s *Server) HandoffHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		token := query.Get("token")
		user := query.Get("user")

		if token == "" || user == "" {
			redirectSuccess(w, r, RouteError)
			return
		}

		if err := s.store.Set(token, user); err != nil {
			log.Error().Err(err).Msg("failed to store handed-off session")
			redirectSuccess(w, r, RouteError)
			return
		}

		// Best effort only. A broken telemetry sink must never block login.
		if profile, err := users.ParseProfile(user); err == nil {
			s.recorder.Record(r.Context(), activity.FromRequest(r, profile.ID, activity.EventLogin))
		}

		redirectSuccess(w, r, s.config.GetLandingPath())
	}
}

// LogoutHandler wipes the stored session and tears down the broker
// connection, then sends the operator to the error page as a neutral
// signed-out landing spot.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if profile := s.currentProfile(); profile != nil {
			s.recorder.Record(r.Context(), activity.FromRequest(r, profile.ID, activity.EventLogout))
		}

		if err := s.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear session store on logout")
		}
		if err := s.channel.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect realtime channel on logout")
		}

		redirectSuccess(w, r, RouteError)
	}
}

// currentProfile parses the stored user blob, or nil when absent or invalid.
func (s *Server) currentProfile() *users.Profile {
	current, err := s.store.Get()
	if err != nil || current.User == "" {
		return nil
	}
	profile, err := users.ParseProfile(current.User)
	if err != nil {
		return nil
	}
	return &profile
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
