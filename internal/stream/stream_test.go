package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lotas/stimmung/internal/types"
	"nhooyr.io/websocket"
)

// wsServer starts an httptest server that upgrades each request and hands the
// connection to handle along with the 1-based connection number.
func wsServer(t *testing.T, handle func(n int64, conn *websocket.Conn)) (url string, conns *atomic.Int64) {
	t.Helper()
	var count atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		handle(count.Add(1), conn)
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http"), &count
}

func waitStatus(t *testing.T, c *Client, want types.Status) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got, ok := <-c.Status():
			if !ok {
				t.Fatalf("status channel closed while waiting for %v", want)
			}
			if got == want {
				return
			}
			// Intermediate transitions are fine; keep draining.
		case <-deadline:
			t.Fatalf("timed out waiting for status %v", want)
		}
	}
}

func TestClientDeliversEventsInOrder(t *testing.T) {
	url, _ := wsServer(t, func(n int64, conn *websocket.Conn) {
		ctx := context.Background()
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"new_post","data":{"post_id":"e1"}}`))
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"new_post","data":{"post_id":"e2"}}`))
		// Keep the connection open until the test ends.
		conn.Read(ctx)
	})

	c := New(url)
	c.Open()
	defer c.Close()

	waitStatus(t, c, types.StatusConnected)

	for _, want := range []string{"e1", "e2"} {
		select {
		case ev := <-c.Events():
			if ev.Type != "new_post" {
				t.Errorf("type = %q, want new_post", ev.Type)
			}
			if !strings.Contains(string(ev.Data), want) {
				t.Errorf("data = %s, want it to carry %s", ev.Data, want)
			}
			if ev.ReceivedAt.IsZero() {
				t.Error("ReceivedAt not set")
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for event %s", want)
		}
	}
}

func TestClientReconnectsAfterRemoteClose(t *testing.T) {
	url, conns := wsServer(t, func(n int64, conn *websocket.Conn) {
		if n == 1 {
			// First connection: drop immediately.
			conn.CloseNow()
			return
		}
		conn.Read(context.Background())
	})

	c := New(url)
	c.delay = 30 * time.Millisecond
	c.Open()
	defer c.Close()

	waitStatus(t, c, types.StatusConnected)
	waitStatus(t, c, types.StatusDisconnected)
	waitStatus(t, c, types.StatusConnecting)
	waitStatus(t, c, types.StatusConnected)

	// One retry should mean exactly two connections — a duplicated retry
	// timer would show up as extra dials.
	time.Sleep(100 * time.Millisecond)
	if got := conns.Load(); got != 2 {
		t.Errorf("connection count = %d, want 2", got)
	}
}

func TestClientRetriesFailedDial(t *testing.T) {
	// Nothing listens here; every dial fails.
	c := New("ws://127.0.0.1:1")
	c.delay = 20 * time.Millisecond
	c.Open()
	defer c.Close()

	waitStatus(t, c, types.StatusConnecting)
	waitStatus(t, c, types.StatusDisconnected)
	waitStatus(t, c, types.StatusConnecting)
	waitStatus(t, c, types.StatusDisconnected)
}

func TestClientDropsMalformedFrames(t *testing.T) {
	url, _ := wsServer(t, func(n int64, conn *websocket.Conn) {
		ctx := context.Background()
		conn.Write(ctx, websocket.MessageText, []byte(`{not json`))
		conn.Write(ctx, websocket.MessageText, []byte(`{"type":"metrics_update","data":{}}`))
		conn.Read(ctx)
	})

	c := New(url)
	c.Open()
	defer c.Close()

	waitStatus(t, c, types.StatusConnected)

	select {
	case ev := <-c.Events():
		if ev.Type != "metrics_update" {
			t.Errorf("got %q, want the valid frame after the malformed one", ev.Type)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the valid frame")
	}

	// A malformed frame must not bounce the connection.
	select {
	case s := <-c.Status():
		t.Errorf("unexpected status transition %v after malformed frame", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseCancelsPendingRetry(t *testing.T) {
	c := New("ws://127.0.0.1:1")
	c.delay = time.Hour // would hang forever if the timer leaked
	c.Open()

	waitStatus(t, c, types.StatusDisconnected)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the pending retry")
	}

	// Channels are closed after shutdown; no late deliveries.
	if _, ok := <-c.Events(); ok {
		t.Error("events channel should be closed")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New("ws://127.0.0.1:1")
	c.Close()
	c.Close() // second call must not panic or block

	c2 := New("ws://127.0.0.1:1")
	c2.delay = 10 * time.Millisecond
	c2.Open()
	c2.Close()
	c2.Close()
}
