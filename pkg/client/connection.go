package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aeolun/yacs/pkg/protocol"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
	sendBufferSize = 64
)

// Connection is the session's single persistent websocket. Pushes are parsed
// into envelopes and dispatched to the handlers registered with On.
type Connection struct {
	url    string
	dialer *websocket.Dialer

	mu            sync.RWMutex
	id            Identity
	cur           *wsSession
	connected     bool
	reconnecting  bool
	closed        bool
	autoReconnect bool
	stopReconnect context.CancelFunc

	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	// Reconnect policy, replaced in tests
	newBackOff func() backoff.BackOff

	metrics *Metrics
	logger  *log.Logger

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// wsSession is one dialed socket; a reconnect creates a new one.
type wsSession struct {
	ws   *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (s *wsSession) stop() {
	s.once.Do(func() {
		close(s.done)
		s.ws.Close()
	})
}

// NewConnection creates a connection for the server's HTTP base URL. The
// websocket endpoint is derived from it.
func NewConnection(serverURL string) (*Connection, error) {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		url: wsURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		handlers:      make(map[string][]Handler),
		autoReconnect: true,
		newBackOff:    defaultBackOff,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry until Close or Disconnect
	return b
}

// websocketURL maps http(s)://host/base to ws(s)://host/base/ws.
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme", serverURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", serverURL)
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path += "/ws"
	}
	return u.String(), nil
}

// SetLogger sets a logger for debugging connection events
func (c *Connection) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetMetrics attaches metrics to the connection
func (c *Connection) SetMetrics(m *Metrics) {
	c.metrics = m
}

// DisableAutoReconnect disables automatic reconnection on connection loss
func (c *Connection) DisableAutoReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoReconnect = false
}

// logf logs a message if a logger is set
func (c *Connection) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// URL returns the websocket endpoint
func (c *Connection) URL() string {
	return c.url
}

// On registers a handler for an event. Handlers for the same event run in
// registration order.
func (c *Connection) On(event string, h Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

func (c *Connection) dispatch(env *protocol.Envelope) {
	c.handlersMu.RLock()
	hs := append([]Handler(nil), c.handlers[env.Event]...)
	c.handlersMu.RUnlock()

	if len(hs) == 0 {
		c.logf("No handler for event %q", env.Event)
		return
	}
	for _, h := range hs {
		h(env)
	}
}

// Connect dials the server with the identity's credential in the handshake.
func (c *Connection) Connect(ctx context.Context, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("connection closed")
	}
	if c.connected {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.id = id
	c.mu.Unlock()

	c.logf("Connecting to %s as %s...", c.url, id.Nick)
	return c.dial(ctx)
}

func (c *Connection) dial(ctx context.Context) error {
	c.mu.RLock()
	id := c.id
	c.mu.RUnlock()

	ws, resp, err := c.dialer.DialContext(ctx, c.url, id.Header())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w", c.url, &StatusError{Op: "handshake", Code: resp.StatusCode})
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	sess := &wsSession{
		ws:   ws,
		out:  make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed || ctx.Err() != nil {
		c.mu.Unlock()
		ws.Close()
		return errors.New("connection closed")
	}
	c.cur = sess
	c.connected = true
	c.mu.Unlock()

	c.metrics.RecordConnected(true)
	c.logf("Connected to %s", c.url)

	c.wg.Add(2)
	go c.writeLoop(sess)
	go c.readLoop(sess)
	return nil
}

// Disconnect closes the socket without reconnecting.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	sess := c.cur
	c.cur = nil
	c.connected = false
	if c.stopReconnect != nil {
		c.stopReconnect()
		c.stopReconnect = nil
	}
	c.mu.Unlock()

	if sess == nil {
		return
	}
	c.logf("Disconnecting from %s", c.url)
	sess.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	sess.stop()
	c.metrics.RecordConnected(false)
}

// Close shuts down the connection permanently
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.Disconnect()
	c.wg.Wait()
	c.logf("Connection fully closed")
}

// IsConnected returns whether the socket is currently up
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsReconnecting returns whether a reconnect loop is running
func (c *Connection) IsReconnecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnecting
}

// Emit sends an event without a correlation id.
func (c *Connection) Emit(event string, payload interface{}) error {
	return c.EmitWithID(event, "", payload)
}

// EmitWithID queues an event for the writer. Nothing is queued while the
// socket is down; the caller gets ErrNotConnected and the emit is lost.
func (c *Connection) EmitWithID(event, id string, payload interface{}) error {
	env, err := protocol.NewEnvelope(event, id, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.RLock()
	sess := c.cur
	c.mu.RUnlock()

	if sess == nil {
		c.metrics.RecordEmitDropped(event)
		c.logf("Dropped %s: not connected", event)
		return ErrNotConnected
	}

	select {
	case sess.out <- data:
		c.metrics.RecordEmit(event)
		return nil
	case <-sess.done:
		c.metrics.RecordEmitDropped(event)
		return ErrNotConnected
	default:
		c.metrics.RecordEmitDropped(event)
		return fmt.Errorf("send buffer full, dropped %s", event)
	}
}

func (c *Connection) readLoop(sess *wsSession) {
	defer c.wg.Done()
	defer c.handleDrop(sess)

	sess.ws.SetReadLimit(maxMessageSize)
	sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	sess.ws.SetPongHandler(func(string) error {
		sess.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The handshake succeeded; surface it before any server push.
	c.dispatch(&protocol.Envelope{Event: protocol.EventConnect})

	for {
		_, data, err := sess.ws.ReadMessage()
		if err != nil {
			select {
			case <-sess.done:
				// Local Disconnect
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logf("Read error: %v", err)
				} else {
					c.logf("Connection closed by server: %v", err)
				}
			}
			return
		}

		env, err := protocol.ParseEnvelope(data)
		if err != nil {
			c.metrics.RecordInvalidPush("unknown")
			c.logf("Dropping malformed push: %v", err)
			continue
		}
		c.metrics.RecordPush(env.Event)
		c.logf("← RECV: %s (%d bytes)", env.Event, len(env.Data))
		c.dispatch(env)
	}
}

func (c *Connection) writeLoop(sess *wsSession) {
	defer c.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-sess.out:
			sess.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logf("Write error: %v", err)
				sess.stop()
				return
			}

		case <-ticker.C:
			sess.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logf("Ping error: %v", err)
				sess.stop()
				return
			}

		case <-sess.done:
			return
		}
	}
}

// handleDrop runs when a read loop exits. Only an unexpected loss of the
// current socket is reported and triggers a reconnect.
func (c *Connection) handleDrop(sess *wsSession) {
	sess.stop()

	c.mu.Lock()
	if c.cur != sess {
		c.mu.Unlock()
		return
	}
	c.cur = nil
	c.connected = false
	reconnect := c.autoReconnect && !c.closed
	c.mu.Unlock()

	c.metrics.RecordConnected(false)
	c.logf("Disconnected from %s", c.url)
	c.dispatch(&protocol.Envelope{Event: protocol.EventDisconnect})

	if reconnect {
		c.startReconnect()
	}
}

func (c *Connection) startReconnect() {
	c.mu.Lock()
	if c.reconnecting || c.closed {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.reconnecting = true
	c.stopReconnect = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.reconnectLoop(ctx)
}

// reconnectLoop re-dials with exponential backoff until it succeeds or is
// cancelled by Disconnect or Close.
func (c *Connection) reconnectLoop(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	op := func() error {
		attempt++
		c.logf("Reconnect attempt %d to %s", attempt, c.url)
		err := c.dial(ctx)
		if err != nil {
			c.logf("Reconnect attempt %d failed: %v", attempt, err)
			var se *StatusError
			if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
				return backoff.Permanent(err)
			}
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		c.logf("Reconnect abandoned: %v", err)
		return
	}
	c.metrics.RecordReconnect()
	c.logf("Reconnected successfully after %d attempts", attempt)
}

var _ ConnectionInterface = (*Connection)(nil)
