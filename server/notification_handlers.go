package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/unihelp/admin-bridge/notifications"
)

// notificationsView is the panel state returned by the notification routes.
type notificationsView struct {
	Items       []notifications.Notification `json:"items"`
	UnreadCount int                          `json:"unreadCount"`
	Open        bool                         `json:"open"`
}

func (s *Server) notificationsState() notificationsView {
	return notificationsView{
		Items:       s.center.Items(),
		UnreadCount: s.center.UnreadCount(),
		Open:        s.center.IsOpen(),
	}
}

// ensureLoaded lazily pulls the notification history on the first panel
// access after a handoff.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.center.Loaded() {
		return nil
	}
	return s.center.Load(ctx)
}

// ListNotificationsHandler returns the working set and the derived badge count.
func (s *Server) ListNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ensureLoaded(r.Context()); err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.notificationsState())
	}
}

// ToggleNotificationsHandler flips the panel. Opening marks everything read;
// a failed bulk call is reported inline while the panel stays open with the
// read flags rolled back.
func (s *Server) ToggleNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ensureLoaded(r.Context()); err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}

		if err := s.center.Toggle(r.Context()); err != nil {
			view := s.notificationsState()
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error": err.Error(),
				"state": view,
			})
			return
		}
		writeJSON(w, http.StatusOK, s.notificationsState())
	}
}

// MarkNotificationReadHandler marks a single notification read.
func (s *Server) MarkNotificationReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid notification id")
			return
		}

		if err := s.center.MarkRead(r.Context(), id); err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.notificationsState())
	}
}

// blockRequest carries the triggering notification plus the operator's
// explicit confirmation. An unconfirmed request is a no-op, mirroring a
// dismissed prompt.
type blockRequest struct {
	Notification notifications.Notification `json:"notification"`
	Confirmed    bool                       `json:"confirmed"`
}

// BlockUserHandler blocks the offender named by a moderation notification.
func (s *Server) BlockUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !req.Confirmed {
			writeJSON(w, http.StatusOK, map[string]any{
				"blocked": false,
				"state":   s.notificationsState(),
			})
			return
		}

		if err := s.center.BlockUser(r.Context(), req.Notification); err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"blocked": req.Notification.Moderatable(),
			"state":   s.notificationsState(),
		})
	}
}

// AcceptJoinRequestHandler approves a pending join request.
func (s *Server) AcceptJoinRequestHandler() http.HandlerFunc {
	return s.resolveJoinRequest(s.center.AcceptRequest)
}

// RejectJoinRequestHandler declines a pending join request.
func (s *Server) RejectJoinRequestHandler() http.HandlerFunc {
	return s.resolveJoinRequest(s.center.RejectRequest)
}

func (s *Server) resolveJoinRequest(resolve func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid join request id")
			return
		}

		if err := resolve(r.Context(), id); err != nil {
			if errors.Is(err, notifications.ErrNoActor) {
				writeJSONError(w, http.StatusUnauthorized, "current user unavailable")
				return
			}
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.notificationsState())
	}
}

// chatConnectRequest names the group whose chat topic the channel follows.
type chatConnectRequest struct {
	GroupID int64 `json:"groupId"`
}

// ChatConnectHandler starts the realtime connection loop for a group.
func (s *Server) ChatConnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// The connection loop outlives this request.
		s.channel.Connect(context.Background(), req.GroupID)
		writeJSON(w, http.StatusAccepted, map[string]string{
			"state": s.channel.State().String(),
		})
	}
}

// ChatDisconnectHandler tears the realtime connection down.
func (s *Server) ChatDisconnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.channel.Disconnect(); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"state": s.channel.State().String(),
		})
	}
}
