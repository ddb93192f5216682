// Package apiclient is the HTTP implementation of the notification
// collaborator. Calls carry the stored session token as a bearer credential;
// the only contract the bridge relies on is success or failure.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unihelp/admin-bridge/notifications"
	"github.com/unihelp/admin-bridge/session"
)

// Client is the notification service API client.
type Client struct {
	baseURL    string
	store      session.Store
	httpClient *http.Client
}

var _ notifications.Service = (*Client)(nil)

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a notification API client. The session store supplies
// the bearer token per request, so a re-handoff is picked up immediately.
func NewClient(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll retrieves the full notification history for a recipient.
func (c *Client) FetchAll(ctx context.Context, recipientID int64) ([]notifications.Notification, error) {
	url := fmt.Sprintf("%s/notifications/user/%d", c.baseURL, recipientID)

	var items []notifications.Notification
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &items); err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return items, nil
}

// FetchUnread retrieves only the unread notifications for a recipient.
func (c *Client) FetchUnread(ctx context.Context, recipientID int64) ([]notifications.Notification, error) {
	url := fmt.Sprintf("%s/notifications/user/%d/unread", c.baseURL, recipientID)

	var items []notifications.Notification
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &items); err != nil {
		return nil, fmt.Errorf("fetch unread notifications: %w", err)
	}
	return items, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	url := fmt.Sprintf("%s/notifications/%d/read", c.baseURL, notificationID)

	if err := c.doRequest(ctx, http.MethodPut, url, nil, nil); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification for the recipient as read.
func (c *Client) MarkAllRead(ctx context.Context, recipientID int64) error {
	url := fmt.Sprintf("%s/notifications/user/%d/read-all", c.baseURL, recipientID)

	if err := c.doRequest(ctx, http.MethodPut, url, nil, nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// BlockUser blocks the offender inside the given group.
func (c *Client) BlockUser(ctx context.Context, groupID, offenderID int64) error {
	url := fmt.Sprintf("%s/groups/%d/block/%d", c.baseURL, groupID, offenderID)

	if err := c.doRequest(ctx, http.MethodPost, url, nil, nil); err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

// AcceptJoinRequest resolves a join request, recording the accepting admin.
func (c *Client) AcceptJoinRequest(ctx context.Context, requestID, acceptedBy int64) error {
	url := fmt.Sprintf("%s/join-requests/%d/accept", c.baseURL, requestID)

	body := map[string]any{"acceptedBy": acceptedBy}
	if err := c.doRequest(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("accept join request: %w", err)
	}
	return nil
}

// RejectJoinRequest declines a join request.
func (c *Client) RejectJoinRequest(ctx context.Context, requestID int64) error {
	url := fmt.Sprintf("%s/join-requests/%d/reject", c.baseURL, requestID)

	if err := c.doRequest(ctx, http.MethodPost, url, nil, nil); err != nil {
		return fmt.Errorf("reject join request: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request and decodes the response.
func (c *Client) doRequest(ctx context.Context, method, url string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if current, err := c.store.Get(); err == nil && current.Token != "" {
		req.Header.Set("Authorization", "Bearer "+current.Token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
