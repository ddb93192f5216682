package realtime_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/unihelp/admin-bridge/notifications"
	"github.com/unihelp/admin-bridge/realtime"
)

const testTimeout = 2 * time.Second

// brokerConn is one accepted client connection on the fake broker, captured
// after the STOMP handshake and all three subscriptions completed.
type brokerConn struct {
	conn          *websocket.Conn
	subscriptions []string
}

func (bc *brokerConn) send(t *testing.T, destination, body string) {
	t.Helper()

	frame := realtime.NewFrame(realtime.CmdMessage, realtime.HdrDestination, destination)
	frame.Body = []byte(body)
	require.NoError(t, bc.conn.WriteMessage(websocket.TextMessage, frame.Marshal()))
}

// fakeBroker speaks just enough STOMP-over-WebSocket for the client: it
// answers CONNECT with CONNECTED, records SUBSCRIBE destinations, and hands
// each fully set up connection to the test.
type fakeBroker struct {
	server *httptest.Server
	conns  chan *brokerConn
	dials  atomic.Int32
}

func newFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()

	broker := &fakeBroker{conns: make(chan *brokerConn, 4)}
	upgrader := websocket.Upgrader{}

	broker.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		broker.dials.Add(1)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		bc := &brokerConn{conn: conn}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame, err := realtime.ParseFrame(data)
			if err != nil || frame == nil {
				continue
			}

			switch frame.Command {
			case realtime.CmdConnect:
				connected := realtime.NewFrame(realtime.CmdConnected, "version", "1.2")
				if err := conn.WriteMessage(websocket.TextMessage, connected.Marshal()); err != nil {
					return
				}
			case realtime.CmdSubscribe:
				bc.subscriptions = append(bc.subscriptions, frame.Headers[realtime.HdrDestination])
				if len(bc.subscriptions) == 3 {
					broker.conns <- bc
				}
			case realtime.CmdDisconnect:
				return
			}
		}
	}))
	t.Cleanup(broker.server.Close)
	return broker
}

func (b *fakeBroker) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func (b *fakeBroker) accept(t *testing.T) *brokerConn {
	t.Helper()

	select {
	case bc := <-b.conns:
		return bc
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for broker connection")
		return nil
	}
}

func recvChat(t *testing.T, ch <-chan realtime.ChatMessage) realtime.ChatMessage {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for chat message")
		return realtime.ChatMessage{}
	}
}

func recvAlert(t *testing.T, ch <-chan notifications.Notification) notifications.Notification {
	t.Helper()

	select {
	case alert := <-ch:
		return alert
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for alert")
		return notifications.Notification{}
	}
}

func recvBlocked(t *testing.T, ch <-chan int64) int64 {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for blocked signal")
		return 0
	}
}

func TestConnectSubscribesToAllThreeDestinations(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	require.ElementsMatch(t, []string{
		"/topic/chat/5",
		"/user/queue/notifications",
		"/user/queue/blocked",
	}, bc.subscriptions)

	require.Eventually(t, func() bool {
		return client.State() == realtime.StateConnected
	}, testTimeout, 10*time.Millisecond)
}

func TestChatFramesAreDecodedInOrder(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	bc.send(t, "/topic/chat/5", `{"text":"hi","sender":"ann"}`)
	bc.send(t, "/topic/chat/5", `{"text":"there"}`)

	first := recvChat(t, client.Messages())
	require.Equal(t, "hi", first.Text)
	require.Equal(t, "ann", first.Sender)
	require.Equal(t, "there", recvChat(t, client.Messages()).Text)
}

func TestAlertFramesFeedNotificationStream(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	bc.send(t, "/user/queue/notifications", `{"id":3,"title":"join request","joinRequestId":42}`)

	alert := recvAlert(t, client.Alerts())
	require.Equal(t, int64(3), alert.ID)
	require.Equal(t, int64(42), alert.JoinRequestID)
}

func TestBlockedSignalHasLatestValueSemantics(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	early := client.Blocked()
	bc.send(t, "/user/queue/blocked", "7")
	require.Equal(t, int64(7), recvBlocked(t, early))

	// A late subscriber observes the most recent value immediately.
	require.Equal(t, int64(7), recvBlocked(t, client.Blocked()))
}

func TestUndecodableFramesAreSkipped(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	bc.send(t, "/topic/chat/5", `{{{not json`)
	bc.send(t, "/topic/chat/5", `{"text":"still alive"}`)

	require.Equal(t, "still alive", recvChat(t, client.Messages()).Text)
}

func TestAlertsFlowWhileChatStreamUnread(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	// Overflow the chat buffer with nobody reading Messages().
	for i := 0; i < 70; i++ {
		bc.send(t, "/topic/chat/5", `{"text":"noise"}`)
	}
	bc.send(t, "/user/queue/notifications", `{"id":11,"title":"still here"}`)

	require.Equal(t, int64(11), recvAlert(t, client.Alerts()).ID)
}

func TestChatStreamDropsOldestOnOverflow(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 5)
	bc := broker.accept(t)

	for i := 0; i < 70; i++ {
		bc.send(t, "/topic/chat/5", fmt.Sprintf(`{"text":"m%d"}`, i))
	}
	// Frames dispatch in order, so once this alert arrives every chat frame
	// above has been processed.
	bc.send(t, "/user/queue/blocked", "1")
	recvBlocked(t, client.Blocked())

	// Buffer keeps the newest 64; m0..m5 were dropped.
	require.Equal(t, "m6", recvChat(t, client.Messages()).Text)
}

func TestReconnectRestoresSubscriptionsAfterDrop(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))
	defer func() { require.NoError(t, client.Disconnect()) }()

	client.Connect(context.Background(), 9)
	first := broker.accept(t)
	require.NoError(t, first.conn.Close())

	second := broker.accept(t)
	require.Contains(t, second.subscriptions, "/topic/chat/9")
	require.GreaterOrEqual(t, broker.dials.Load(), int32(2))

	second.send(t, "/topic/chat/9", `{"text":"back"}`)
	require.Equal(t, "back", recvChat(t, client.Messages()).Text)
}

func TestDisconnectBeforeConnectResolves(t *testing.T) {
	client := realtime.NewClient("ws://127.0.0.1:1/ws")

	done := make(chan error, 1)
	go func() { done <- client.Disconnect() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("disconnect hung with no prior connect")
	}
	require.Equal(t, realtime.StateDisconnected, client.State())
}

func TestDisconnectStopsReconnectLoop(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(20*time.Millisecond))

	client.Connect(context.Background(), 5)
	broker.accept(t)
	require.NoError(t, client.Disconnect())

	dialsAfter := broker.dials.Load()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, dialsAfter, broker.dials.Load(), "no dials after disconnect")
	require.Equal(t, realtime.StateDisconnected, client.State())
}

func TestConnectAfterDisconnectStartsClean(t *testing.T) {
	broker := newFakeBroker(t)
	client := realtime.NewClient(broker.url(), realtime.WithRetryDelay(50*time.Millisecond))

	client.Connect(context.Background(), 5)
	broker.accept(t)
	require.NoError(t, client.Disconnect())

	client.Connect(context.Background(), 6)
	defer func() { require.NoError(t, client.Disconnect()) }()

	bc := broker.accept(t)
	require.Contains(t, bc.subscriptions, "/topic/chat/6")
}
