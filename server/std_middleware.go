package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler) // Call the middleware function
	}
	return chainedHandler
}

// PageMiddleware is the standard chain for browser-facing routes.
func (s *Server) PageMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

// APIMiddleware is the standard chain for JSON routes.
func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		logRoute(r.Method, r.URL.Path)
		next(w, r)
	}
}

func (s *Server) FrameSecurityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next(w, r)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// No Origin header = same-origin request, no CORS headers needed
		if origin == "" {
			next(w, r)
			return
		}

		allowedOrigins := s.config.GetAllowedOrigins()
		isAllowed := allowedOrigins.IsAllowedOrigin(origin)
		isWildcard := allowedOrigins.IsAllowedOrigin("*")

		// Handle preflight (OPTIONS) requests
		if r.Method == "OPTIONS" {
			if isAllowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
			} else if isWildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
				// Don't set Allow-Credentials with wildcard
			}
			// If not allowed and not wildcard, return 200 with no CORS headers
			// Browser will block the actual request
			w.WriteHeader(http.StatusOK)
			return
		}

		// Handle actual requests (non-OPTIONS)
		if isAllowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else if isWildcard {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			// Don't set Allow-Credentials with wildcard
		}

		next(w, r)
	}
}
