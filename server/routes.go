package server

func (s *Server) initRoutes() {
	// Session handoff from the main portal
	s.RegisterRouteHandler("GET "+RouteHandoff, ChainMiddleware(s.HandoffHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteError, ChainMiddleware(s.ErrorPageHandler(), s.PageMiddleware()...))

	// Admin routes (guarded)
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(s.DashboardHandler(), s.PageMiddleware(s.RequireAdmin())...))

	// Notification panel routes (guarded)
	s.RegisterRouteHandler("GET "+RouteNotifications, ChainMiddleware(s.ListNotificationsHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteNotificationsToggle, ChainMiddleware(s.ToggleNotificationsHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("PUT "+RouteNotificationRead, ChainMiddleware(s.MarkNotificationReadHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteNotificationsBlock, ChainMiddleware(s.BlockUserHandler(), s.APIMiddleware(s.RequireAdmin())...))

	// Join request moderation (guarded)
	s.RegisterRouteHandler("POST "+RouteJoinRequestAccept, ChainMiddleware(s.AcceptJoinRequestHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteJoinRequestReject, ChainMiddleware(s.RejectJoinRequestHandler(), s.APIMiddleware(s.RequireAdmin())...))

	// Realtime channel control (guarded) and status
	s.RegisterRouteHandler("POST "+RouteChatConnect, ChainMiddleware(s.ChatConnectHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("POST "+RouteChatDisconnect, ChainMiddleware(s.ChatDisconnectHandler(), s.APIMiddleware(s.RequireAdmin())...))
	s.RegisterRouteHandler("GET "+RouteRealtimeStatus, ChainMiddleware(s.RealtimeStatusHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("/", s.NotFoundHandler())
}
