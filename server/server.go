package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/unihelp/admin-bridge/activity"
	"github.com/unihelp/admin-bridge/auth"
	"github.com/unihelp/admin-bridge/internal/config"
	"github.com/unihelp/admin-bridge/notifications"
	"github.com/unihelp/admin-bridge/realtime"
	"github.com/unihelp/admin-bridge/session"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	guard    *auth.Guard
	store    session.Store
	center   *notifications.Center
	channel  *realtime.Client
	recorder activity.Recorder
}

func New(config config.Config, store session.Store, center *notifications.Center, channel *realtime.Client, recorder activity.Recorder) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("[Server New] no session store")
	}
	if center == nil {
		return nil, fmt.Errorf("[Server New] no notification center")
	}
	if channel == nil {
		return nil, fmt.Errorf("[Server New] no realtime channel")
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}

	guard, err := auth.NewGuard(store, RouteError)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create access guard: %w", err)
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		guard:    guard,
		store:    store,
		center:   center,
		channel:  channel,
		recorder: recorder,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
