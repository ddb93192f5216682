package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/unihelp/admin-bridge/session"
	"github.com/unihelp/admin-bridge/users"
)

// ErrNoActor is returned when a moderation action needs the current user and
// the stored profile is absent or unparseable.
var ErrNoActor = errors.New("current user unavailable")

// ConfirmFunc asks for interactive confirmation before a destructive
// moderation action. Returning false aborts the action without error.
type ConfirmFunc func(n Notification) bool

// Center is the notification panel's working set. History is loaded once via
// the REST collaborator and live alerts are prepended as they arrive; the two
// are deliberately not de-duplicated, so an alert delivered in the window
// right after the history fetch can appear twice (kept as-is pending product
// guidance).
type Center struct {
	svc     Service
	store   session.Store
	confirm ConfirmFunc

	mu     sync.Mutex
	items  []Notification
	open   bool
	loaded bool
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithConfirm overrides the confirmation hook used by BlockUser. The default
// accepts every request; interactive frontends wire their own prompt.
func WithConfirm(confirm ConfirmFunc) CenterOption {
	return func(c *Center) {
		c.confirm = confirm
	}
}

// NewCenter creates a notification center backed by the given collaborator
// and session store.
func NewCenter(svc Service, store session.Store, options ...CenterOption) (*Center, error) {
	if svc == nil {
		return nil, errors.New("[NewCenter] notification service is required")
	}
	if store == nil {
		return nil, errors.New("[NewCenter] session store is required")
	}

	c := &Center{
		svc:     svc,
		store:   store,
		confirm: func(Notification) bool { return true },
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Load replaces the working set with the recipient's full history, in the
// order the collaborator returned it.
func (c *Center) Load(ctx context.Context) error {
	actor, err := c.currentActor()
	if err != nil {
		return err
	}

	items, err := c.svc.FetchAll(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("load notification history: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.loaded = true
	return nil
}

// Loaded reports whether the history fetch has completed at least once.
func (c *Center) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Attach consumes the live alert stream until it closes or ctx is cancelled,
// prepending each arrival to the working set.
func (c *Center) Attach(ctx context.Context, alerts <-chan Notification) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-alerts:
				if !ok {
					return
				}
				c.Prepend(n)
			}
		}
	}()
}

// Prepend puts a live alert at the front of the working set.
func (c *Center) Prepend(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Notification{n}, c.items...)
}

// Items returns a copy of the working set in display order.
func (c *Center) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// UnreadCount is derived from the working set on every call, never stored.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// IsOpen reports whether the panel is open.
func (c *Center) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Toggle flips the panel open or closed. Opening with unread items marks the
// whole working set read optimistically and then issues the bulk mark-read
// call; on failure the pre-mutation read flags are restored (a compensating
// action, not a retry) and the error is returned for inline display. The
// panel stays open either way.
func (c *Center) Toggle(ctx context.Context) error {
	c.mu.Lock()
	if c.open {
		c.open = false
		c.mu.Unlock()
		return nil
	}
	c.open = true

	unread := 0
	for _, n := range c.items {
		if !n.Read {
			unread++
		}
	}
	if unread == 0 {
		c.mu.Unlock()
		return nil
	}

	snapshot := make([]bool, len(c.items))
	for i := range c.items {
		snapshot[i] = c.items[i].Read
		c.items[i].Read = true
	}
	c.mu.Unlock()

	actor, err := c.currentActor()
	if err == nil {
		err = c.svc.MarkAllRead(ctx, actor.ID)
	}
	if err != nil {
		c.rollbackReadFlags(snapshot)
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Close dismisses the panel (outside click, navigation, action completion).
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

// MarkRead marks a single notification read, remotely then locally.
func (c *Center) MarkRead(ctx context.Context, notificationID int64) error {
	if err := c.svc.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == notificationID {
			c.items[i].Read = true
		}
	}
	return nil
}

// BlockUser blocks the offender named by a moderation notification. It
// silently no-ops when the notification lacks group or offender context, or
// when confirmation is declined. On success the triggering notification is
// marked read and the panel closes; on failure nothing changes.
func (c *Center) BlockUser(ctx context.Context, n Notification) error {
	if !n.Moderatable() {
		return nil
	}
	if !c.confirm(n) {
		return nil
	}

	if err := c.svc.BlockUser(ctx, n.GroupID, n.OffenderID); err != nil {
		return fmt.Errorf("block user %d in group %d: %w", n.OffenderID, n.GroupID, err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == n.ID {
			c.items[i].Read = true
		}
	}
	c.open = false
	c.mu.Unlock()

	// Persisting the read flag is best effort; the block already succeeded.
	if err := c.svc.MarkRead(ctx, n.ID); err != nil {
		log.Warn().Err(err).Int64("notification_id", n.ID).Msg("failed to persist read flag after block")
	}
	return nil
}

// AcceptRequest resolves a join request on behalf of the current user. On
// success every working-set entry referencing the request is purged, stale
// duplicates included, and the panel closes.
func (c *Center) AcceptRequest(ctx context.Context, requestID int64) error {
	actor, err := c.currentActor()
	if err != nil {
		return err
	}

	if err := c.svc.AcceptJoinRequest(ctx, requestID, actor.ID); err != nil {
		return fmt.Errorf("accept join request %d: %w", requestID, err)
	}

	c.purgeRequest(requestID)
	return nil
}

// RejectRequest declines a join request. Same working-set semantics as
// AcceptRequest.
func (c *Center) RejectRequest(ctx context.Context, requestID int64) error {
	if _, err := c.currentActor(); err != nil {
		return err
	}

	if err := c.svc.RejectJoinRequest(ctx, requestID); err != nil {
		return fmt.Errorf("reject join request %d: %w", requestID, err)
	}

	c.purgeRequest(requestID)
	return nil
}

func (c *Center) purgeRequest(requestID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, n := range c.items {
		if n.JoinRequestID != requestID {
			kept = append(kept, n)
		}
	}
	c.items = kept
	c.open = false
}

func (c *Center) rollbackReadFlags(snapshot []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Live alerts may have been prepended since the snapshot; restore from
	// the tail so indices line up with the snapshotted suffix.
	offset := len(c.items) - len(snapshot)
	if offset < 0 {
		return
	}
	for i, read := range snapshot {
		c.items[offset+i].Read = read
	}
}

func (c *Center) currentActor() (users.Profile, error) {
	current, err := c.store.Get()
	if err != nil || current.User == "" {
		return users.Profile{}, ErrNoActor
	}
	profile, err := users.ParseProfile(current.User)
	if err != nil {
		return users.Profile{}, ErrNoActor
	}
	return profile, nil
}
