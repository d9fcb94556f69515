package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lotas/stimmung/internal/applog"
	"github.com/lotas/stimmung/internal/types"
	"nhooyr.io/websocket"
)

// RetryDelay is the fixed pause between reconnect attempts. There is no
// backoff growth and no retry ceiling: the dashboard keeps trying for the
// life of the session.
const RetryDelay = 3 * time.Second

// Event is one push-channel frame. Data is left raw — the reconciler owns
// payload interpretation.
type Event struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"-"`
}

// Client owns the single push-channel connection to the backend. It dials,
// reads frames into an ordered event channel, and re-dials after RetryDelay
// whenever the connection drops. Status transitions are delivered on a
// separate channel.
type Client struct {
	url    string
	delay  time.Duration
	events chan Event
	status chan types.Status

	openOnce  sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Client for the given websocket URL. The connection is not
// established until Open is called.
func New(url string) *Client {
	return &Client{
		url:    url,
		delay:  RetryDelay,
		events: make(chan Event, 64),
		status: make(chan types.Status, 16),
		done:   make(chan struct{}),
	}
}

// Events returns the ordered channel of push events. It is closed when the
// client shuts down.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Status returns the channel of connection-state transitions. It is closed
// when the client shuts down.
func (c *Client) Status() <-chan types.Status {
	return c.status
}

// Open starts the connect/read/retry loop on its own goroutine. Calling it
// more than once has no effect.
func (c *Client) Open() {
	c.openOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		go c.run(ctx)
	})
}

// Close stops the client: the connection is torn down, any pending retry
// timer is cancelled, and no further events or status transitions are
// delivered. Idempotent; returns once the run loop has exited.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.openOnce.Do(func() {
			// Never opened — nothing is running.
			close(c.done)
			close(c.events)
			close(c.status)
		})
		if c.cancel != nil {
			c.cancel()
		}
		<-c.done
	})
}

func (c *Client) run(ctx context.Context) {
	defer func() {
		close(c.events)
		close(c.status)
		close(c.done)
	}()

	for {
		if !c.emit(ctx, types.StatusConnecting) {
			return
		}

		conn, _, err := websocket.Dial(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			applog.Error("ws.dial", err, "url", c.url)
			if !c.emit(ctx, types.StatusDisconnected) || !c.pause(ctx) {
				return
			}
			continue
		}

		conn.SetReadLimit(1 << 20)
		applog.Info("ws.connected", "url", c.url)
		if !c.emit(ctx, types.StatusConnected) {
			conn.CloseNow()
			return
		}

		c.readLoop(ctx, conn)
		conn.CloseNow()

		if ctx.Err() != nil {
			return
		}
		applog.Info("ws.disconnected")
		if !c.emit(ctx, types.StatusDisconnected) || !c.pause(ctx) {
			return
		}
	}
}

// readLoop reads frames until the connection errors or ctx is cancelled.
// Malformed frames are dropped without affecting the connection.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			applog.Error("ws.parse", err)
			continue
		}
		ev.ReceivedAt = time.Now()
		select {
		case c.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) emit(ctx context.Context, s types.Status) bool {
	select {
	case c.status <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// pause waits out the retry delay. Returns false if the client was closed
// while waiting.
func (c *Client) pause(ctx context.Context) bool {
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
