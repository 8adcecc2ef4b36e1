// Package kuma is a minimal Uptime Kuma client speaking Socket.IO over a
// WebSocket. It covers login, notification channels and monitors.
package kuma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventNotificationList = "notificationList"
	eventMonitorList      = "monitorList"
)

type Options struct {
	// Timeout bounds each request/acknowledgement round trip. Zero means no
	// bound beyond the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int
	pending map[int]chan []json.RawMessage
	events  map[string]*eventState

	done      chan struct{}
	failOnce  sync.Once
	closeOnce sync.Once
	err       error
}

type eventState struct {
	args  []json.RawMessage
	ready chan struct{}
	seen  bool
}

// Dial opens a Socket.IO session on the default namespace of the Uptime Kuma
// instance at baseURL.
func Dial(ctx context.Context, baseURL string, opts Options) (*Client, error) {
	endpoint, err := socketURL(baseURL)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dialCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		timeout: opts.Timeout,
		pending: make(map[int]chan []json.RawMessage),
		events:  make(map[string]*eventState),
		done:    make(chan struct{}),
	}

	if err := c.handshake(dialCtx); err != nil {
		_ = conn.Close() //nolint:errcheck
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func socketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Uptime Kuma URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid Uptime Kuma URL %q: unsupported scheme", baseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid Uptime Kuma URL %q: missing host", baseURL)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	u.Fragment = ""
	return u.String(), nil
}

func (c *Client) handshake(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline) //nolint:errcheck
		defer c.conn.SetReadDeadline(time.Time{})
	}

	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read open packet: %w", err)
	}
	if len(msg) == 0 || msg[0] != engineOpen {
		return fmt.Errorf("unexpected first packet %q", truncate(msg))
	}

	var open openPayload
	if err := json.Unmarshal(msg[1:], &open); err != nil {
		return fmt.Errorf("invalid open packet: %w", err)
	}
	c.logger.Debug("Engine.IO session opened", "sid", open.SID, "pingInterval", open.PingInterval)

	if err := c.write([]byte{engineMessage, socketConnect}); err != nil {
		return fmt.Errorf("failed to connect namespace: %w", err)
	}

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read connect ack: %w", err)
		}
		if len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case enginePing:
			if err := c.write([]byte{enginePong}); err != nil {
				return fmt.Errorf("failed to answer ping: %w", err)
			}
		case engineMessage:
			p, err := decodeSocketPacket(msg[1:])
			if err != nil {
				return err
			}
			switch p.Type {
			case socketConnect:
				c.logger.Debug("Socket.IO namespace connected")
				return nil
			case socketConnectError:
				return fmt.Errorf("connection refused: %s", string(p.Data))
			default:
				c.handlePacket(p)
			}
		case engineClose:
			return ErrClosed
		}
	}
}

func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("connection lost: %w", err))
			return
		}
		if len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case enginePing:
			if err := c.write([]byte{enginePong}); err != nil {
				c.fail(fmt.Errorf("failed to answer ping: %w", err))
				return
			}
		case engineClose:
			c.fail(ErrClosed)
			return
		case engineMessage:
			p, err := decodeSocketPacket(msg[1:])
			if err != nil {
				c.logger.Warn("Dropping malformed packet", "error", err)
				continue
			}
			if p.Type == socketDisconnect {
				c.fail(ErrClosed)
				return
			}
			c.handlePacket(p)
		case engineNoop, enginePong:
		}
	}
}

func (c *Client) handlePacket(p packet) {
	switch p.Type {
	case socketEvent:
		name, args, err := splitEvent(p.Data)
		if err != nil {
			c.logger.Warn("Dropping malformed event", "error", err)
			return
		}
		c.logger.Debug("Received event", "event", name)

		c.mu.Lock()
		st := c.event(name)
		st.args = args
		if !st.seen {
			st.seen = true
			close(st.ready)
		}
		c.mu.Unlock()

	case socketAck:
		args, err := splitArgs(p.Data)
		if err != nil {
			c.logger.Warn("Dropping malformed ack", "id", p.ID, "error", err)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[p.ID]
		delete(c.pending, p.ID)
		c.mu.Unlock()

		if ok {
			ch <- args
		}
	}
}

// event must be called with c.mu held.
func (c *Client) event(name string) *eventState {
	st, ok := c.events[name]
	if !ok {
		st = &eventState{ready: make(chan struct{})}
		c.events[name] = st
	}
	return st
}

func (c *Client) fail(err error) {
	c.failOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *Client) closedErr() error {
	<-c.done
	return c.err
}

func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// call emits event with an ack id and waits for the server's acknowledgement.
func (c *Client) call(ctx context.Context, event string, args ...any) ([]json.RawMessage, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ch := make(chan []json.RawMessage, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	frame, err := encodeEvent(id, event, args...)
	if err != nil {
		return nil, err
	}

	select {
	case <-c.done:
		return nil, c.closedErr()
	default:
	}

	c.logger.Debug("Emitting event", "event", event, "ack", id)
	if err := c.write(frame); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", event, err)
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-c.done:
		return nil, c.closedErr()
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", event, ctx.Err())
	}
}

// callResult performs call and decodes the conventional {ok, msg, ...}
// acknowledgement. ok=false becomes an *APIError.
func (c *Client) callResult(ctx context.Context, event string, args ...any) (map[string]any, error) {
	reply, err := c.call(ctx, event, args...)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, fmt.Errorf("%s: empty acknowledgement", event)
	}

	result := map[string]any{}
	if err := json.Unmarshal(reply[0], &result); err != nil {
		return nil, fmt.Errorf("%s: invalid acknowledgement: %w", event, err)
	}

	if ok, _ := result["ok"].(bool); !ok {
		msg, _ := result["msg"].(string)
		return result, &APIError{Event: event, Msg: msg}
	}
	return result, nil
}

// waitEvent returns the latest arguments of a server-pushed event, blocking
// until it has been received at least once.
func (c *Client) waitEvent(ctx context.Context, name string) ([]json.RawMessage, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.mu.Lock()
	st := c.event(name)
	c.mu.Unlock()

	select {
	case <-st.ready:
	case <-c.done:
		return nil, c.closedErr()
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return st.args, nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	_, err := c.callResult(ctx, "login", map[string]any{
		"username": username,
		"password": password,
		"token":    "",
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	args, err := c.waitEvent(ctx, eventNotificationList)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(args[0], &rows); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", eventNotificationList, err)
	}

	notifications := make([]Notification, 0, len(rows))
	for _, row := range rows {
		n, err := decodeNotification(row)
		if err != nil {
			return nil, fmt.Errorf("invalid notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// AddNotification creates a notification channel and returns the raw
// acknowledgement. The id key varies between server versions; see ExtractID.
func (c *Client) AddNotification(ctx context.Context, spec NotificationSpec) (map[string]any, error) {
	result, err := c.callResult(ctx, "addNotification", spec.body(), nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Monitors(ctx context.Context) ([]Monitor, error) {
	args, err := c.waitEvent(ctx, eventMonitorList)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &byID); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", eventMonitorList, err)
	}

	monitors := make([]Monitor, 0, len(byID))
	for _, raw := range byID {
		m, err := decodeMonitor(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid monitor: %w", err)
		}
		monitors = append(monitors, m)
	}
	sort.Slice(monitors, func(i, j int) bool { return monitors[i].ID < monitors[j].ID })
	return monitors, nil
}

func (c *Client) AddMonitor(ctx context.Context, spec MonitorSpec) (map[string]any, error) {
	result, err := c.callResult(ctx, "add", spec.body())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close leaves the namespace and closes the WebSocket. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.fail(ErrClosed)
		_ = c.write([]byte{engineMessage, socketDisconnect}) //nolint:errcheck

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}

func truncate(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
