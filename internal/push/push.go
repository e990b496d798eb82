// Package push maintains the live-update channel: one websocket connection
// per authenticated session, scoped server-side by the user id supplied at
// connection time. The channel is an optimization; order tracking stays
// correct through polling even if it never connects.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickplate/ordering-client/internal/metrics"
	"github.com/quickplate/ordering-client/pkg/logger"
)

// EventOrderStatusUpdate is the only event type the client listens for.
const EventOrderStatusUpdate = "order_status_update"

// Frame is the wire envelope for channel messages.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusUpdate is the payload of an order_status_update event. The order id
// arrives as a number from some backend versions and as a string from
// others; OrderID normalizes both.
type StatusUpdate struct {
	OrderID OrderID `json:"orderId"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
}

// OrderID tolerates numeric and string JSON representations.
type OrderID int64

// UnmarshalJSON accepts 42 and "42" alike.
func (id *OrderID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("order id %q is not numeric", s)
	}
	*id = OrderID(n)
	return nil
}

// Handler receives order status updates. Handlers run on the connection's
// read goroutine dispatch and must not block.
type Handler func(StatusUpdate)

// Config holds push client configuration.
type Config struct {
	// URL is the backend root, e.g. "http://localhost:5000". It is
	// converted to the websocket scheme internally.
	URL string
	// UserID scopes the connection server-side.
	UserID int64
	// Logger is optional.
	Logger *logger.Logger
	// OnStateChange, when set, is notified as the connection comes and
	// goes. Failures are surfaced here non-fatally.
	OnStateChange func(connected bool, err error)

	// HandshakeTimeout bounds the dial. Defaults to 10s.
	HandshakeTimeout time.Duration
	// InitialBackoff is the first redial delay. Defaults to 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps the redial delay. Defaults to 30s.
	MaxBackoff time.Duration
}

// Client is the live-update channel client.
type Client struct {
	mu       sync.Mutex
	cfg      Config
	log      *logger.Logger
	wsURL    string
	conn     *websocket.Conn
	handlers map[int64]Handler
	nextID   int64
	done     chan struct{}
	started  bool
	closed   bool
}

// New creates a push client for the given user. The connection is not opened
// until Start is called.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.UserID == 0 {
		return nil, fmt.Errorf("UserID is required")
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("push")
	}

	wsURL := strings.TrimSuffix(cfg.URL, "/")
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/events?" + url.Values{"userId": {strconv.FormatInt(cfg.UserID, 10)}}.Encode()

	return &Client{
		cfg:      cfg,
		log:      log.WithField("user_id", cfg.UserID),
		wsURL:    wsURL,
		handlers: make(map[int64]Handler),
		done:     make(chan struct{}),
	}, nil
}

// Subscribe registers a handler for order status updates and returns an
// unsubscribe func. Unsubscribing twice is a no-op; after unsubscribing the
// handler is never invoked again, so view teardown is safe.
func (c *Client) Subscribe(handler Handler) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

// Start opens the connection and keeps it alive with backoff redials until
// Close is called or ctx is canceled. It returns immediately; connection
// state is reported through OnStateChange.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(ctx)
}

// Close tears the connection down. Safe to call more than once, and safe
// before Start.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		conn.Close()
	}
}

func (c *Client) run(ctx context.Context) {
	attempt := 0
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if attempt > 0 {
			metrics.ObservePushReconnect()
			delay := c.backoff(attempt)
			select {
			case <-time.After(delay):
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		}

		err := c.connectAndServe(ctx)
		if err != nil {
			c.log.WithError(err).Warn("push channel disconnected")
			c.notify(false, err)
			attempt++
			continue
		}
		// Clean shutdown.
		return
	}
}

// connectAndServe dials once and reads until the connection drops or the
// client closes. A nil return means deliberate shutdown.
func (c *Client) connectAndServe(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("push channel connected")
	c.notify(true, nil)

	stopHeartbeat := make(chan struct{})
	go c.heartbeat(conn, stopHeartbeat)
	defer close(stopHeartbeat)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			if closed {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.log.WithError(err).Debug("dropping malformed frame")
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame Frame) {
	if frame.Event != EventOrderStatusUpdate {
		return
	}
	metrics.ObservePushEvent(frame.Event)

	var update StatusUpdate
	if err := json.Unmarshal(frame.Payload, &update); err != nil {
		c.log.WithError(err).Debug("dropping malformed status update")
		return
	}
	if update.OrderID == 0 {
		return
	}

	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(update)
	}
}

func (c *Client) heartbeat(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(Frame{Event: "ping"}); err != nil {
				return
			}
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := float64(c.cfg.InitialBackoff) * math.Pow(2, float64(attempt-1))
	if d > float64(c.cfg.MaxBackoff) {
		d = float64(c.cfg.MaxBackoff)
	}
	// Jitter keeps a fleet of clients from redialing in lockstep.
	d += d * 0.1 * (rand.Float64()*2 - 1)
	return time.Duration(d)
}

func (c *Client) notify(connected bool, err error) {
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(connected, err)
	}
}
