package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/callscope/adminfeed/internal/connection"
	"github.com/callscope/adminfeed/internal/model"
)

// Client is the Realtime Admin Client. It owns a single logical connection
// to the admin event endpoint; consumers construct and own the instance
// explicitly (there is no package-level shared client).
type Client struct {
	cfg    Config
	logger *slog.Logger

	dispatcher *dispatcher

	// Factory for transport clients, replaceable in tests.
	newTransport func(connection.Config, *slog.Logger) connection.Client

	// State machine. generation identifies the current transport; events
	// from superseded transports are discarded.
	mu             sync.Mutex
	state          State
	transport      connection.Client
	generation     int
	token          string
	attempts       int
	intentional    bool
	categories     []string
	reconnectTimer *time.Timer
	connDone       chan struct{}

	// Counters
	received   atomic.Int64
	dispatched atomic.Int64
	parseErrs  atomic.Int64
	unknown    atomic.Int64
	reconnects atomic.Int64
}

// New creates a new feed client. Zero-valued config fields fall back to
// DefaultConfig values.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &Client{
		cfg:          cfg,
		logger:       logger,
		dispatcher:   newDispatcher(logger),
		newTransport: connection.NewClient,
		state:        StateDisconnected,
	}
}

// Connect establishes the connection using the given bearer token.
// It is idempotent: while a connection is open or an attempt is in flight,
// further calls return nil without opening a second transport.
func (c *Client) Connect(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.state = StateConnecting
	c.token = token
	c.intentional = false
	c.attempts = 0
	c.generation++
	gen := c.generation
	transport := c.newTransport(c.transportConfig(token), c.logger)
	c.transport = transport
	c.mu.Unlock()

	if err := transport.Connect(ctx); err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.state = StateError
			c.transport = nil
		}
		c.mu.Unlock()
		c.dispatcher.emitError(err)
		return err
	}

	c.open(gen, transport)
	return nil
}

// open transitions to connected and starts the session goroutines.
func (c *Client) open(gen int, transport connection.Client) {
	c.mu.Lock()
	if c.generation != gen || c.intentional {
		// Superseded by Disconnect or a newer connect while dialing.
		c.mu.Unlock()
		transport.Close()
		return
	}
	c.state = StateConnected
	c.attempts = 0
	done := make(chan struct{})
	c.connDone = done
	categories := slices.Clone(c.categories)
	c.mu.Unlock()

	go c.readLoop(gen, transport, done)
	go c.heartbeatLoop(transport, done)

	c.logger.Info("feed connected", "url", c.cfg.URL)
	c.dispatcher.emitConnected()

	if len(categories) > 0 {
		c.sendCommand(transport, model.SubscribeCommand{
			Type:       model.TypeSubscribe,
			Categories: categories,
		})
	}
}

// Disconnect closes the connection. Always safe to call; it cancels any
// pending reconnect so a deliberate disconnect never retries.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	transport := c.transport
	c.transport = nil
	c.generation++
	wasDisconnected := c.state == StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
	if !wasDisconnected {
		c.logger.Info("feed disconnected")
		c.dispatcher.emitDisconnected("client disconnect")
	}
}

// State returns the current connection state. It reads "connecting"
// immediately after Connect is invoked, before the dial completes.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns runtime counters.
func (c *Client) Stats() Stats {
	return Stats{
		MessagesReceived:   c.received.Load(),
		MessagesDispatched: c.dispatched.Load(),
		ParseErrors:        c.parseErrs.Load(),
		UnknownMessages:    c.unknown.Load(),
		Reconnects:         c.reconnects.Load(),
	}
}

// -----------------------------------------------------------------------------
// Handler registration
// -----------------------------------------------------------------------------

// OnConnected registers a handler for the connected event.
func (c *Client) OnConnected(h func()) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.connected[id] = h })
}

// OnDisconnected registers a handler for the disconnected event.
func (c *Client) OnDisconnected(h func(reason string)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.disconnected[id] = h })
}

// OnError registers a handler for transport errors.
func (c *Client) OnError(h func(err error)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.errs[id] = h })
}

// OnNotification registers a handler for pushed notifications.
func (c *Client) OnNotification(h func(model.Notification)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.notification[id] = h })
}

// OnMetrics registers a handler for metrics snapshots.
func (c *Client) OnMetrics(h func(model.Metrics)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.metrics[id] = h })
}

// OnUserActivity registers a handler for user activity events.
func (c *Client) OnUserActivity(h func(model.UserActivity)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.activity[id] = h })
}

// OnMaxReconnectAttempts registers a handler for retry exhaustion. The
// client stays in the error state until Connect is called again.
func (c *Client) OnMaxReconnectAttempts(h func(attempts int)) (remove func()) {
	return c.dispatcher.add(func(id int) { c.dispatcher.maxAttempts[id] = h })
}

// -----------------------------------------------------------------------------
// Outbound commands
// -----------------------------------------------------------------------------

// SubscribeToNotifications asks the server to push the given categories.
// The set is remembered and re-sent after a reconnect. Best-effort: dropped
// with a log line when not connected.
func (c *Client) SubscribeToNotifications(categories []string) {
	c.mu.Lock()
	c.categories = slices.Clone(categories)
	transport, connected := c.transport, c.state == StateConnected
	c.mu.Unlock()

	if !connected || transport == nil {
		c.logger.Debug("subscribe dropped, not connected")
		return
	}
	c.sendCommand(transport, model.SubscribeCommand{
		Type:       model.TypeSubscribe,
		Categories: categories,
	})
}

// RequestMetrics asks the server for an immediate metrics push. Best-effort.
func (c *Client) RequestMetrics() {
	c.mu.Lock()
	transport, connected := c.transport, c.state == StateConnected
	c.mu.Unlock()

	if !connected || transport == nil {
		c.logger.Debug("metrics request dropped, not connected")
		return
	}
	c.sendCommand(transport, model.RequestMetricsCommand{Type: model.TypeRequestMetrics})
}

// MarkNotificationRead marks a notification as read server-side. Best-effort.
func (c *Client) MarkNotificationRead(id string) {
	c.mu.Lock()
	transport, connected := c.transport, c.state == StateConnected
	c.mu.Unlock()

	if !connected || transport == nil {
		c.logger.Debug("mark_read dropped, not connected", "id", id)
		return
	}
	c.sendCommand(transport, model.MarkReadCommand{
		Type:           model.TypeMarkRead,
		NotificationID: id,
	})
}

func (c *Client) sendCommand(transport connection.Client, cmd any) {
	data, err := json.Marshal(cmd)
	if err != nil {
		c.logger.Error("marshal command", "error", err)
		return
	}
	if err := transport.Send(data); err != nil {
		c.logger.Warn("send failed", "error", err)
	}
}

// -----------------------------------------------------------------------------
// Session loops
// -----------------------------------------------------------------------------

// readLoop consumes frames and errors from one transport generation.
func (c *Client) readLoop(gen int, transport connection.Client, done chan struct{}) {
	for {
		select {
		case <-done:
			return

		case err := <-transport.Errors():
			c.handleTransportError(gen, err)
			return

		case msg := <-transport.Messages():
			c.dispatch(msg.Data)
		}
	}
}

// heartbeatLoop sends the application-level ping while the session lives.
func (c *Client) heartbeatLoop(transport connection.Client, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(model.PingCommand{Type: model.TypePing})

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := transport.Send(ping); err != nil {
				c.logger.Debug("heartbeat send failed", "error", err)
			}
		}
	}
}

// dispatch parses one inbound frame and emits the matching typed event.
// Malformed frames are logged and dropped; unknown types are ignored.
func (c *Client) dispatch(data []byte) {
	c.received.Add(1)

	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.parseErrs.Add(1)
		c.logger.Warn("malformed frame dropped", "error", err)
		return
	}

	switch env.Type {
	case model.TypeNotification:
		var n model.Notification
		if err := json.Unmarshal(env.Data, &n); err != nil {
			c.parseErrs.Add(1)
			c.logger.Warn("malformed notification dropped", "error", err)
			return
		}
		c.dispatched.Add(1)
		c.dispatcher.emitNotification(n)

	case model.TypeMetrics:
		var m model.Metrics
		if err := json.Unmarshal(env.Data, &m); err != nil {
			c.parseErrs.Add(1)
			c.logger.Warn("malformed metrics dropped", "error", err)
			return
		}
		c.dispatched.Add(1)
		c.dispatcher.emitMetrics(m)

	case model.TypeUserActivity:
		var a model.UserActivity
		if err := json.Unmarshal(env.Data, &a); err != nil {
			c.parseErrs.Add(1)
			c.logger.Warn("malformed user activity dropped", "error", err)
			return
		}
		c.dispatched.Add(1)
		c.dispatcher.emitUserActivity(a)

	case model.TypePong:
		// Server answer to our heartbeat; nothing to do.

	default:
		c.unknown.Add(1)
		c.logger.Debug("ignoring message type", "type", env.Type)
	}
}

// handleTransportError reacts to an unexpected close or read failure.
// Events from a superseded transport generation are discarded.
func (c *Client) handleTransportError(gen int, err error) {
	c.mu.Lock()
	if c.generation != gen || c.intentional {
		c.mu.Unlock()
		return
	}
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	c.state = StateError
	transport := c.transport
	c.transport = nil
	c.mu.Unlock()

	if transport != nil {
		transport.Close()
	}

	c.logger.Warn("connection lost", "error", err)
	c.dispatcher.emitError(err)
	c.scheduleReconnect()
}

// scheduleReconnect arms the single reconnect timer, or reports exhaustion
// once the attempt budget is spent.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.intentional {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.state = StateError
		attempts := c.attempts
		c.mu.Unlock()
		c.logger.Warn("max reconnect attempts reached", "attempts", attempts)
		c.dispatcher.emitMaxReconnectAttempts(attempts)
		return
	}
	c.attempts++
	attempt := c.attempts
	delay := backoffDelay(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, attempt)
	c.reconnectTimer = time.AfterFunc(delay, c.reconnect)
	c.mu.Unlock()

	c.logger.Info("scheduling reconnect", "attempt", attempt, "delay", delay)
}

// reconnect performs one reconnection attempt with the last-used token.
func (c *Client) reconnect() {
	c.mu.Lock()
	// Only proceed from the error state: a manual Connect that raced the
	// timer has already taken over the connection.
	if c.intentional || c.state != StateError {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.state = StateConnecting
	c.generation++
	gen := c.generation
	transport := c.newTransport(c.transportConfig(c.token), c.logger)
	c.transport = transport
	c.mu.Unlock()

	c.reconnects.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	defer cancel()

	if err := transport.Connect(ctx); err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.state = StateError
			c.transport = nil
		}
		c.mu.Unlock()
		c.logger.Warn("reconnect failed", "error", err)
		c.scheduleReconnect()
		return
	}

	c.open(gen, transport)
}

func (c *Client) transportConfig(token string) connection.Config {
	return connection.Config{
		URL:          c.cfg.URL,
		Token:        token,
		DialTimeout:  c.cfg.DialTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
		BufferSize:   c.cfg.BufferSize,
	}
}

// backoffDelay returns the wait before the given attempt (1-based).
// Doubles from base, capped at max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		delay = max
	}
	return delay
}
