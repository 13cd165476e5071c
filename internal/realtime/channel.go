package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// State is the channel's connection state.
type State int

const (
	// Disconnected means no connection exists and none is scheduled.
	Disconnected State = iota

	// Connecting means a dial is in flight.
	Connecting

	// Open means the connection is established and receiving.
	Open

	// ReconnectScheduled means a close occurred and the single owned timer
	// will fire one reconnect attempt after the fixed delay.
	ReconnectScheduled
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case ReconnectScheduled:
		return "reconnect_scheduled"
	default:
		return "disconnected"
	}
}

// Event is a pushed message. Type is the discriminator; Raw carries the
// whole envelope for the rare handler that wants to peek, but the payload
// is not guaranteed complete and must not be treated as authoritative.
type Event struct {
	Type string
	Raw  json.RawMessage
}

// Handler consumes a pushed event. Handlers run on the channel's read
// goroutine and should hand off promptly (typically by nudging a refresher).
type Handler func(Event)

// TokenSource supplies the current bearer token. The channel reads it on
// every dial so a re-established session reconnects with the fresh token.
type TokenSource func(ctx context.Context) (string, bool)

// Options configures a Channel.
type Options struct {
	// URL is the full WebSocket endpoint, e.g. "ws://localhost:5000/ws".
	URL string

	// Token supplies the bearer token appended as the ?token= parameter.
	Token TokenSource

	// ReconnectDelay is the fixed delay before a reconnect attempt.
	ReconnectDelay time.Duration

	// MaxAttempts bounds consecutive failed attempts. 0 means unlimited.
	MaxAttempts int

	// MaxMessageSize limits inbound message size in bytes.
	MaxMessageSize int64

	// PingInterval is how often keepalive pings are sent while open.
	PingInterval time.Duration

	// PongTimeout is the grace period for the read deadline beyond the
	// ping interval.
	PongTimeout time.Duration

	Logger *logging.Logger
}

// Channel is the realtime push connection for one session.
//
// Thread Safety: all exported methods are safe for concurrent use. Handlers
// must be registered before Connect.
type Channel struct {
	opts Options

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	timer    *time.Timer // single owned reconnect timer
	attempts int
	closed   bool
	handlers map[string][]Handler
}

// New creates a disconnected channel.
func New(opts Options) *Channel {
	return &Channel{
		opts:     opts,
		state:    Disconnected,
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for an event type. Must be called before Connect.
func (c *Channel) On(eventType string, fn Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], fn)
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the initial connection. A failed initial dial is
// returned to the caller rather than retried: the reconnect machinery only
// engages once a connection has been established and then lost.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return err
	}

	c.adopt(conn)
	return nil
}

// Close tears the channel down: it cancels any scheduled reconnect and
// closes the socket. Close is a no-op if already closed.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = Disconnected
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		//nolint:errcheck // Best-effort close message before teardown
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close() //nolint:errcheck // Socket is going away either way
	}
}

// dial opens one WebSocket connection with the current token.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	token, ok := c.opts.Token(ctx)
	if !ok {
		return nil, ErrNoToken
	}

	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDialFailed, err)
	}
	// The handshake cannot carry an Authorization header, so the token
	// rides as a query parameter.
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: status %d", ErrDialFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrDialFailed, err)
	}
	return conn, nil
}

// adopt installs an open connection and starts its pumps.
func (c *Channel) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close() //nolint:errcheck // Closed while dialing
		return
	}
	c.conn = conn
	c.state = Open
	c.attempts = 0
	c.mu.Unlock()

	c.opts.Logger.Debug("realtime channel open")

	go c.readLoop(conn)
	if c.opts.PingInterval > 0 {
		go c.pingLoop(conn)
	}
}

// readLoop reads messages until the connection dies, then hands off to the
// close path.
func (c *Channel) readLoop(conn *websocket.Conn) {
	if c.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(c.opts.MaxMessageSize)
	}
	deadline := c.opts.PingInterval + c.opts.PongTimeout
	if deadline > 0 {
		//nolint:errcheck // Best-effort deadline on connection setup
		conn.SetReadDeadline(time.Now().Add(deadline))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(deadline))
		})
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.opts.Logger.Warn("realtime read error", "error", err)
			} else {
				c.opts.Logger.Debug("realtime channel closed", "error", err)
			}
			conn.Close() //nolint:errcheck // Read side already failed
			c.handleClosed(conn)
			return
		}
		if deadline > 0 {
			//nolint:errcheck // Best-effort deadline reset
			conn.SetReadDeadline(time.Now().Add(deadline))
		}
		c.dispatch(message)
	}
}

// pingLoop sends keepalive pings while the connection is open.
func (c *Channel) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		current := c.conn
		c.mu.Unlock()
		if current != conn {
			return // connection replaced or closed
		}
		deadline := time.Now().Add(c.opts.PongTimeout)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}

// dispatch decodes the envelope and fans out by type. Messages with no
// registered handler are dropped after a debug log; ordering across types
// is not assumed.
func (c *Channel) dispatch(message []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil || envelope.Type == "" {
		c.opts.Logger.Warn("dropping malformed realtime message", "error", err)
		return
	}

	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers[envelope.Type]))
	copy(handlers, c.handlers[envelope.Type])
	c.mu.Unlock()

	if len(handlers) == 0 {
		c.opts.Logger.Debug("no handler for realtime event", "type", envelope.Type)
		return
	}

	event := Event{Type: envelope.Type, Raw: json.RawMessage(message)}
	for _, fn := range handlers {
		fn(event)
	}
}

// handleClosed runs after a connection dies and schedules the single
// reconnect attempt.
func (c *Channel) handleClosed(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		// Explicit Close, or an older connection losing a race with its
		// replacement — nothing to schedule.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	c.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer. If an attempt is already
// scheduled the pending timer is replaced, never doubled — the channel owns
// exactly one timer handle.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.opts.MaxAttempts > 0 && c.attempts >= c.opts.MaxAttempts {
		c.opts.Logger.Warn("realtime reconnect attempts exhausted",
			"attempts", c.attempts)
		c.state = Disconnected
		return
	}
	c.attempts++

	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = ReconnectScheduled
	c.opts.Logger.Debug("realtime reconnect scheduled",
		"delay", c.opts.ReconnectDelay, "attempt", c.attempts)
	c.timer = time.AfterFunc(c.opts.ReconnectDelay, c.reconnect)
}

// reconnect is the timer callback: one dial, then either adopt the new
// connection or schedule the next attempt.
func (c *Channel) reconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.dial(context.Background())
	if err != nil {
		c.opts.Logger.Warn("realtime reconnect failed", "error", err)
		c.scheduleReconnect()
		return
	}
	c.adopt(conn)
}
