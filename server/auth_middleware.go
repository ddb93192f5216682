package server

import (
	"context"
	"net/http"

	"github.com/unihelp/admin-bridge/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyProfile stores the operator profile admitted by the guard
	ContextKeyProfile ContextKey = "profile"
)

// RequireAdmin is middleware that gates a route behind the access guard.
// Denied requests are redirected to the guard's error route and never reach
// the wrapped handler.
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			decision := s.guard.Check()
			if !decision.Allowed {
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyProfile, decision.Profile)
			next(w, r.WithContext(ctx))
		}
	}
}

// ProfileFromContext returns the guard-admitted profile, if any.
func ProfileFromContext(ctx context.Context) (users.Profile, bool) {
	profile, ok := ctx.Value(ContextKeyProfile).(users.Profile)
	return profile, ok
}
