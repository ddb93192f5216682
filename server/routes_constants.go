package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Handoff & Logout
	RouteHandoff = "/auth/handoff"
	RouteLogout  = "/auth/logout"
	RouteError   = "/error"

	// Admin Routes
	RouteAdminDashboard = "/admin/dashboard"

	// Notification Routes
	RouteNotifications       = "/api/notifications"
	RouteNotificationsToggle = "/api/notifications/toggle"
	RouteNotificationRead    = "/api/notifications/{id}/read"
	RouteNotificationsBlock  = "/api/notifications/block"

	// Join Request Moderation Routes
	RouteJoinRequestAccept = "/api/join-requests/{id}/accept"
	RouteJoinRequestReject = "/api/join-requests/{id}/reject"

	// Realtime Channel Routes
	RouteChatConnect    = "/api/chat/connect"
	RouteChatDisconnect = "/api/chat/disconnect"
	RouteRealtimeStatus = "/ws/status"
)
