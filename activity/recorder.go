// Package activity ships best-effort session telemetry (logins, logouts,
// page views) to the platform's tracking sink. Nothing here may ever reach
// the operator: failures are logged and swallowed.
package activity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventType classifies a tracked action.
type EventType string

const (
	EventLogin    EventType = "login"
	EventLogout   EventType = "logout"
	EventPageView EventType = "page_view"
)

// Event is one recorded action, tagged with a device fingerprint so the
// platform can correlate sessions across sub-applications.
type Event struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"userId,omitempty"`
	Type        EventType `json:"type"`
	Path        string    `json:"path,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	At          time.Time `json:"at"`
}

// Recorder is the one-way telemetry sink. Record never returns an error.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Fingerprint derives a stable device identifier from connection attributes.
func Fingerprint(remoteAddr, userAgent string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	sum := sha256.Sum256([]byte(host + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// FromRequest builds an event for the given request and user.
func FromRequest(r *http.Request, userID int64, eventType EventType) Event {
	return Event{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        eventType,
		Path:        r.URL.Path,
		Fingerprint: Fingerprint(r.RemoteAddr, r.UserAgent()),
		At:          time.Now(),
	}
}

// HTTPRecorder posts events to the tracking service.
type HTTPRecorder struct {
	endpoint   string
	httpClient *http.Client
}

var _ Recorder = (*HTTPRecorder)(nil)

// NewHTTPRecorder creates a recorder posting to the given endpoint URL.
func NewHTTPRecorder(endpoint string) *HTTPRecorder {
	return &HTTPRecorder{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Record posts the event. Failures of any kind are logged and dropped.
func (r *HTTPRecorder) Record(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Msg("activity event not serializable")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("activity request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("event", string(event.Type)).Msg("activity sink unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("event", string(event.Type)).Msg("activity sink rejected event")
	}
}

// NopRecorder discards every event. Used when no sink is configured.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

// Record does nothing.
func (NopRecorder) Record(context.Context, Event) {}
