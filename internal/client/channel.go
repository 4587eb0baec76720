package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	roomsync "github.com/auxroom/server/internal/sync"
	"github.com/auxroom/server/pkg/wsrelay"
)

// Channel is the websocket side of the room's broadcast bus. Handlers
// run on the read loop, one event at a time; Send is safe to call from
// any goroutine.
type Channel struct {
	wsURL  string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	conn     *wsrelay.Sender
	handlers map[string][]func(payload json.RawMessage)
	// generation invalidates the read loop of a superseded connection
	// so a deliberate Unsubscribe does not surface as a drop.
	generation int
}

type ChannelConfig struct {
	// ServerURL is the server root, e.g. http://localhost:8080; the
	// scheme is rewritten for the websocket endpoint.
	ServerURL string
	RoomID    string
	AuthToken string
}

func NewChannel(cfg ChannelConfig, logger *slog.Logger) (*Channel, error) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = "/ws/rooms/" + url.PathEscape(cfg.RoomID)
	u.RawQuery = url.Values{"token": {cfg.AuthToken}}.Encode()

	return &Channel{
		wsURL:    u.String(),
		dialer:   websocket.DefaultDialer,
		logger:   logger,
		handlers: make(map[string][]func(payload json.RawMessage)),
	}, nil
}

func (c *Channel) On(event string, handler func(payload json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

func (c *Channel) Subscribe(ctx context.Context, onStatus func(status roomsync.Status, err error)) error {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial room channel: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = wsrelay.NewSender(conn)
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	go c.readLoop(conn, gen, onStatus)

	if onStatus != nil {
		onStatus(roomsync.StatusSubscribed, nil)
	}

	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn, gen int, onStatus func(status roomsync.Status, err error)) {
	for {
		var env wsrelay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			stale := gen != c.generation
			c.mu.Unlock()

			// A superseded or deliberately closed connection is not a
			// drop; only the live one reports status.
			if stale || onStatus == nil {
				return
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				onStatus(roomsync.StatusClosed, err)
			} else {
				onStatus(roomsync.StatusError, err)
			}
			return
		}

		c.dispatch(&env)
	}
}

func (c *Channel) dispatch(env *wsrelay.Envelope) {
	c.mu.Lock()
	handlers := append([]func(json.RawMessage){}, c.handlers[env.Event]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(env.Payload)
	}
}

func (c *Channel) Send(ctx context.Context, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	c.mu.Lock()
	sender := c.conn
	c.mu.Unlock()

	if sender == nil {
		return fmt.Errorf("channel is not subscribed")
	}

	if err := sender.Send(&wsrelay.Envelope{Event: event, Payload: b}); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}

	return nil
}

// Unsubscribe closes the current connection. The read loop recognizes
// the closure as deliberate and stays silent.
func (c *Channel) Unsubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.generation++
	err := c.conn.Close()
	c.conn = nil

	return err
}
