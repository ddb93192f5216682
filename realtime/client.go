package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/unihelp/admin-bridge/notifications"
)

// State is the connection lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// DefaultRetryDelay is the fixed pause between reconnect attempts.
const DefaultRetryDelay = 5000 * time.Millisecond

const (
	handshakeTimeout = 10 * time.Second
	teardownTimeout  = 5 * time.Second
	streamBuffer     = 64
)

// Personal queue destinations; the chat topic is group-scoped.
const (
	destNotifications = "/user/queue/notifications"
	destBlocked       = "/user/queue/blocked"
	chatTopicPrefix   = "/topic/chat/"
)

// ChatMessage is a group chat frame body. Delivery order per connection
// follows the broker's send order.
type ChatMessage struct {
	SenderID int64     `json:"senderId"`
	Sender   string    `json:"sender"`
	GroupID  int64     `json:"groupId"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// Client multiplexes three logical streams over one broker connection and
// owns the connect/retry/disconnect state machine. On any drop it redials
// after a fixed delay, indefinitely, until Disconnect is called. Concurrent
// Connect calls on one instance are the caller's responsibility to avoid.
type Client struct {
	brokerURL  string
	dialer     *websocket.Dialer
	retryDelay time.Duration

	messages chan ChatMessage
	alerts   chan notifications.Notification
	blocked  *Signal

	mu      sync.Mutex
	writeMu sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	conn    *websocket.Conn
}

// Option configures a Client.
type Option func(*Client)

// WithRetryDelay overrides the fixed reconnect delay (primarily for testing).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithDialer sets a custom WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// NewClient creates a broker client for the fixed endpoint URL
// (ws:// or wss://).
func NewClient(brokerURL string, opts ...Option) *Client {
	c := &Client{
		brokerURL:  brokerURL,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		retryDelay: DefaultRetryDelay,
		messages:   make(chan ChatMessage, streamBuffer),
		alerts:     make(chan notifications.Notification, streamBuffer),
		blocked:    NewSignal(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages is the group chat stream. It holds the most recent messages only:
// when nobody reads it, the oldest buffered message is dropped on overflow so
// the other streams keep flowing.
func (c *Client) Messages() <-chan ChatMessage {
	return c.messages
}

// Alerts is the personal notification stream.
func (c *Client) Alerts() <-chan notifications.Notification {
	return c.alerts
}

// Blocked subscribes to the blocked-group signal. Latest-value semantics: a
// new subscriber immediately receives the most recent value, if any.
func (c *Client) Blocked() <-chan int64 {
	return c.blocked.Subscribe()
}

// State returns the current lifecycle phase.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop for the given chat group. It returns
// immediately; delivery happens on the stream channels. Calling Connect on an
// already-running client is a no-op.
func (c *Client) Connect(ctx context.Context, groupID int64) {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		log.Warn().Msg("realtime client already running, ignoring connect")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = StateConnecting
	c.mu.Unlock()

	go c.run(runCtx, groupID, done)
}

// Disconnect tears the connection down and always returns: gracefully when
// connected, forcibly otherwise, and immediately when the client never ran.
// The internal handle is reset so a subsequent Connect starts clean.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	conn := c.conn
	c.cancel = nil
	c.done = nil
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	if conn != nil {
		// Graceful goodbye; failures here are already a teardown.
		if err := c.writeFrame(conn, NewFrame(CmdDisconnect, HdrReceipt, uuid.NewString())); err != nil {
			log.Debug().Err(err).Msg("disconnect frame not delivered")
		}
		_ = conn.Close()
	}
	cancel()

	select {
	case <-done:
	case <-time.After(teardownTimeout):
		log.Warn().Msg("realtime teardown timed out, abandoning connection loop")
	}
	return nil
}

// run is the reconnect loop: one connection attempt per iteration, with a
// fixed pause between drops.
func (c *Client) run(ctx context.Context, groupID int64, done chan struct{}) {
	defer func() {
		c.setState(StateDisconnected)
		close(done)
	}()

	for {
		err := c.runOnce(ctx, groupID)
		if ctx.Err() != nil {
			return
		}

		c.setState(StateConnecting)
		log.Warn().
			Err(err).
			Int64("group_id", groupID).
			Dur("retry_in", c.retryDelay).
			Msg("broker connection lost, scheduling reconnect")

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runOnce executes one connection lifecycle: dial, STOMP handshake, the
// three subscriptions, then the read loop until the connection drops.
func (c *Client) runOnce(ctx context.Context, groupID int64) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.brokerURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed: status=%d, err=%w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()
	}()

	if err := c.handshake(conn); err != nil {
		return err
	}

	// All three subscriptions go out before any frame is processed, so a
	// successful connect always carries the full set.
	if err := c.subscribeAll(conn, groupID); err != nil {
		return err
	}

	c.setState(StateConnected)
	log.Info().Int64("group_id", groupID).Msg("broker connected")

	return c.readLoop(ctx, conn, groupID)
}

func (c *Client) handshake(conn *websocket.Conn) error {
	host := c.brokerURL
	if u, err := url.Parse(c.brokerURL); err == nil {
		host = u.Hostname()
	}

	connect := NewFrame(CmdConnect,
		HdrAcceptVersion, "1.2",
		HdrHost, host,
		HdrHeartBeat, "0,0",
	)
	if err := c.writeFrame(conn, connect); err != nil {
		return fmt.Errorf("send CONNECT: %w", err)
	}

	frame, err := c.readFrame(conn)
	if err != nil {
		return fmt.Errorf("read CONNECTED: %w", err)
	}
	if frame == nil {
		return fmt.Errorf("expected CONNECTED, got heart-beat")
	}
	if frame.Command != CmdConnected {
		return fmt.Errorf("broker refused connection: %s %s", frame.Command, frame.Body)
	}
	return nil
}

func (c *Client) subscribeAll(conn *websocket.Conn, groupID int64) error {
	destinations := []string{
		chatTopicPrefix + strconv.FormatInt(groupID, 10),
		destNotifications,
		destBlocked,
	}
	for _, dest := range destinations {
		sub := NewFrame(CmdSubscribe,
			HdrID, uuid.NewString(),
			HdrDestination, dest,
		)
		if err := c.writeFrame(conn, sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", dest, err)
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, groupID int64) error {
	chatTopic := chatTopicPrefix + strconv.FormatInt(groupID, 10)

	for {
		frame, err := c.readFrame(conn)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if frame == nil { // heart-beat
			continue
		}

		switch frame.Command {
		case CmdMessage:
			c.dispatch(ctx, frame, chatTopic)
		case CmdError:
			return fmt.Errorf("broker error frame: %s", frame.Body)
		case CmdReceipt:
			// Only requested on DISCONNECT; nothing to do.
		default:
			log.Debug().Str("command", frame.Command).Msg("ignoring unexpected broker frame")
		}
	}
}

func (c *Client) dispatch(ctx context.Context, frame *Frame, chatTopic string) {
	switch dest := frame.Headers[HdrDestination]; dest {
	case chatTopic:
		var msg ChatMessage
		if err := json.Unmarshal(frame.Body, &msg); err != nil {
			log.Warn().Err(err).Msg("dropping undecodable chat frame")
			return
		}
		c.pushChat(msg)

	case destNotifications:
		var alert notifications.Notification
		if err := json.Unmarshal(frame.Body, &alert); err != nil {
			log.Warn().Err(err).Msg("dropping undecodable alert frame")
			return
		}
		select {
		case c.alerts <- alert:
		case <-ctx.Done():
		}

	case destBlocked:
		raw := strings.TrimSpace(string(frame.Body))
		blockedGroup, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
		if err != nil {
			log.Warn().Str("body", raw).Msg("dropping unparseable blocked signal")
			return
		}
		c.blocked.Publish(blockedGroup)

	default:
		log.Debug().Str("destination", dest).Msg("frame for unknown destination")
	}
}

// pushChat never blocks: when the buffer is full the oldest message is
// dropped. The chat stream may have no reader, and a stalled send here would
// freeze the shared read loop and with it alert delivery.
func (c *Client) pushChat(msg ChatMessage) {
	for {
		select {
		case c.messages <- msg:
			return
		default:
		}
		select {
		case <-c.messages:
		default:
		}
	}
}

func (c *Client) writeFrame(conn *websocket.Conn, frame *Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame.Marshal())
}

func (c *Client) readFrame(conn *websocket.Conn) (*Frame, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	frame, err := ParseFrame(data)
	if err != nil {
		log.Warn().Err(err).Msg("skipping malformed broker frame")
		return nil, nil
	}
	return frame, nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}
