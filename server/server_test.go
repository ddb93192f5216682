package server_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unihelp/admin-bridge/internal/config"
	"github.com/unihelp/admin-bridge/notifications"
	"github.com/unihelp/admin-bridge/notifications/servicefakes"
	"github.com/unihelp/admin-bridge/realtime"
	"github.com/unihelp/admin-bridge/server"
	"github.com/unihelp/admin-bridge/session"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]any{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + ".sig"
}

func freshToken(t *testing.T) string {
	return makeToken(t, map[string]any{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()})
}

func adminUser() string {
	return `{"id":7,"role":"ADMIN"}`
}

type testEnv struct {
	server *server.Server
	store  *session.InMemoryStore
	svc    *servicefakes.FakeService
}

func newTestEnv(t *testing.T, history ...notifications.Notification) *testEnv {
	t.Helper()

	store := session.NewInMemoryStore()
	svc := servicefakes.NewFakeService(history...)
	center, err := notifications.NewCenter(svc, store)
	require.NoError(t, err)
	channel := realtime.NewClient("ws://127.0.0.1:1/ws")

	srv, err := server.New(config.New(), store, center, channel, nil)
	require.NoError(t, err)

	return &testEnv{server: srv, store: store, svc: svc}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.Set(freshToken(t), adminUser()))
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestHandoffStoresSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	token := freshToken(t)
	target := "/auth/handoff?token=" + url.QueryEscape(token) + "&user=" + url.QueryEscape(adminUser())
	rec := env.do(http.MethodGet, target, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.Equal(t, "/admin/dashboard", location)
	require.NotContains(t, location, "token")
	require.NotContains(t, location, "user")

	current, err := env.store.Get()
	require.NoError(t, err)
	require.Equal(t, token, current.Token)
	require.Equal(t, adminUser(), current.User)
}

func TestHandoffMissingParamGoesToErrorPage(t *testing.T) {
	for _, target := range []string{
		"/auth/handoff",
		"/auth/handoff?token=only-token",
		"/auth/handoff?user=only-user",
	} {
		env := newTestEnv(t)
		rec := env.do(http.MethodGet, target, nil)

		require.Equal(t, http.StatusSeeOther, rec.Code, "target %q", target)
		require.Equal(t, server.RouteError, rec.Header().Get("Location"))

		current, err := env.store.Get()
		require.NoError(t, err)
		require.False(t, current.Complete())
	}
}

func TestDashboardRequiresAdminSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, server.RouteError, rec.Header().Get("Location"))
}

func TestDashboardWithFreshAdminSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(7), body["userId"])
	require.Equal(t, "ADMIN", body["role"])
}

func TestExpiredSessionRedirectsAndClearsStore(t *testing.T) {
	env := newTestEnv(t)
	stale := makeToken(t, map[string]any{"sub": "7", "exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, env.store.Set(stale, adminUser()))

	rec := env.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, server.RouteError, rec.Header().Get("Location"))

	current, err := env.store.Get()
	require.NoError(t, err)
	require.False(t, current.Complete())
}

func TestNonAdminRedirectedWithoutClearing(t *testing.T) {
	env := newTestEnv(t)
	token := freshToken(t)
	require.NoError(t, env.store.Set(token, `{"id":7,"role":"STUDENT"}`))

	rec := env.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	current, err := env.store.Get()
	require.NoError(t, err)
	require.Equal(t, token, current.Token)
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(http.MethodGet, "/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, server.RouteError, rec.Header().Get("Location"))

	current, err := env.store.Get()
	require.NoError(t, err)
	require.False(t, current.Complete())
}

func TestListNotificationsLoadsHistory(t *testing.T) {
	env := newTestEnv(t,
		notifications.Notification{ID: 1, Title: "a"},
		notifications.Notification{ID: 2, Title: "b", Read: true},
	)
	env.login(t)

	rec := env.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Items       []notifications.Notification `json:"items"`
		UnreadCount int                          `json:"unreadCount"`
		Open        bool                         `json:"open"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 2)
	require.Equal(t, 1, view.UnreadCount)
	require.False(t, view.Open)
}

func TestToggleMarksAllRead(t *testing.T) {
	env := newTestEnv(t,
		notifications.Notification{ID: 1},
		notifications.Notification{ID: 2},
	)
	env.login(t)

	rec := env.do(http.MethodPost, "/api/notifications/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		UnreadCount int  `json:"unreadCount"`
		Open        bool `json:"open"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.True(t, view.Open)
	require.Zero(t, view.UnreadCount)
	require.Equal(t, []int64{7}, env.svc.MarkAllReadCalls)
}

func TestToggleFailureReportsErrorAndRollsBack(t *testing.T) {
	env := newTestEnv(t, notifications.Notification{ID: 1})
	env.login(t)
	env.svc.MarkAllReadErr = servicefakes.Failure

	rec := env.do(http.MethodPost, "/api/notifications/toggle", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Error string `json:"error"`
		State struct {
			UnreadCount int  `json:"unreadCount"`
			Open        bool `json:"open"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Error)
	require.True(t, body.State.Open)
	require.Equal(t, 1, body.State.UnreadCount)
}

func TestMarkSingleNotificationRead(t *testing.T) {
	env := newTestEnv(t, notifications.Notification{ID: 5})
	env.login(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications", nil).Code)

	rec := env.do(http.MethodPut, "/api/notifications/5/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []int64{5}, env.svc.MarkReadCalls)
}

func TestBlockUserRequiresConfirmation(t *testing.T) {
	offender := notifications.Notification{ID: 1, GroupID: 3, OffenderID: 9}
	env := newTestEnv(t, offender)
	env.login(t)

	rec := env.do(http.MethodPost, "/api/notifications/block", map[string]any{
		"notification": offender,
		"confirmed":    false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.svc.BlockUserCalls)

	rec = env.do(http.MethodPost, "/api/notifications/block", map[string]any{
		"notification": offender,
		"confirmed":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [][2]int64{{3, 9}}, env.svc.BlockUserCalls)
}

func TestAcceptJoinRequestCarriesActor(t *testing.T) {
	env := newTestEnv(t, notifications.Notification{ID: 1, JoinRequestID: 42})
	env.login(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications", nil).Code)

	rec := env.do(http.MethodPost, "/api/join-requests/42/accept", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [][2]int64{{42, 7}}, env.svc.AcceptCalls)

	var view struct {
		Items []notifications.Notification `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Items)
}

func TestRejectJoinRequest(t *testing.T) {
	env := newTestEnv(t, notifications.Notification{ID: 1, JoinRequestID: 42})
	env.login(t)

	rec := env.do(http.MethodPost, "/api/join-requests/42/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []int64{42}, env.svc.RejectCalls)
}

func TestRealtimeStatusIsPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/ws/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "disconnected", body["state"])
}
