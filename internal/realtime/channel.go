// internal/realtime/channel.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arixstoo/Junction/internal/model"
)

// State is the channel's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

const (
	defaultMaxRetries    = 5
	defaultRetryDelay    = 3 * time.Second
	defaultPingInterval  = 30 * time.Second
	defaultReconnectWait = time.Second
	maxBufferedAlerts    = 50
)

// Channel owns at most one live websocket connection to the realtime
// endpoint, surfaces typed events, and recovers from unexpected drops with a
// bounded fixed-delay retry policy. The retry timer and the socket handle
// are always released together on every exit path.
type Channel struct {
	url    string
	dialer Dialer

	maxRetries    int
	retryDelay    time.Duration
	pingInterval  time.Duration
	reconnectWait time.Duration
	onState       func(State)

	mu         sync.Mutex
	state      State
	conn       Conn
	gen        int
	retries    int
	retryTimer *time.Timer
	stopPing   chan struct{}

	latest      *model.SensorReading
	alerts      []model.Alert
	lastMessage *model.WSMessage
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer injects the transport; tests use fakes.
func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithRetryDelay overrides the fixed delay between reconnect attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) { c.retryDelay = d }
}

// WithMaxRetries overrides the reconnect attempt budget.
func WithMaxRetries(n int) Option {
	return func(c *Channel) { c.maxRetries = n }
}

// WithPingInterval overrides the keep-alive period.
func WithPingInterval(d time.Duration) Option {
	return func(c *Channel) { c.pingInterval = d }
}

// WithReconnectWait overrides the pause Reconnect takes before redialing.
func WithReconnectWait(d time.Duration) Option {
	return func(c *Channel) { c.reconnectWait = d }
}

// WithStateFunc registers a state-transition observer. The callback runs
// with the channel's lock held and must not call back into the channel.
func WithStateFunc(f func(State)) Option {
	return func(c *Channel) { c.onState = f }
}

func NewChannel(url string, opts ...Option) *Channel {
	c := &Channel{
		url:           url,
		dialer:        DefaultDialer(),
		maxRetries:    defaultMaxRetries,
		retryDelay:    defaultRetryDelay,
		pingInterval:  defaultPingInterval,
		reconnectWait: defaultReconnectWait,
		state:         StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LatestReading returns the payload of the most recent sensor_data message.
func (c *Channel) LatestReading() *model.SensorReading {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil
	}
	reading := *c.latest
	return &reading
}

// Alerts returns the buffered alerts, newest first, at most 50.
func (c *Channel) Alerts() []model.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// LastMessage returns the most recently received frame of any type.
func (c *Channel) LastMessage() *model.WSMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastMessage == nil {
		return nil
	}
	msg := *c.lastMessage
	return &msg
}

// Connect opens the connection. A second request while one is open or in
// progress is a no-op.
func (c *Channel) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnected || c.state == StateConnecting {
		return
	}
	c.setStateLocked(StateConnecting)
	c.gen++
	go c.run(c.gen)
}

// Disconnect closes intentionally: the close code suppresses reconnection
// and any pending retry timer is cancelled together with the socket.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.setStateLocked(StateDisconnected)
}

func (c *Channel) teardownLocked() {
	c.gen++ // invalidate in-flight dials, reads and timers
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	if c.conn != nil {
		deadline := time.Now().Add(time.Second)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.conn.Close()
		c.conn = nil
	}
}

// Reconnect tears the connection down, resets the attempt counter and dials
// again after a short pause.
func (c *Channel) Reconnect() {
	c.mu.Lock()
	c.teardownLocked()
	c.setStateLocked(StateDisconnected)
	c.retries = 0
	c.mu.Unlock()

	if c.reconnectWait > 0 {
		time.AfterFunc(c.reconnectWait, c.Connect)
		return
	}
	c.Connect()
}

func (c *Channel) run(gen int) {
	conn, err := c.dialer.Dial(context.Background(), c.url)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Printf("realtime: dial %s failed: %v", c.url, err)
		if c.retries < c.maxRetries {
			c.setStateLocked(StateError)
			c.scheduleRetryLocked(gen)
		} else {
			c.setStateLocked(StateDisconnected)
		}
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.retries = 0
	stopPing := make(chan struct{})
	c.stopPing = stopPing
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	log.Printf("realtime: connected to %s", c.url)
	go c.pingLoop(conn, stopPing)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleMessage(data)
	}
}

func (c *Channel) handleClose(gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Disconnect or Reconnect already tore this connection down.
		return
	}

	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if isAbnormalClose(err) && c.retries < c.maxRetries {
		log.Printf("realtime: connection dropped: %v", err)
		c.setStateLocked(StateConnecting)
		c.scheduleRetryLocked(gen)
		return
	}

	log.Printf("realtime: disconnected: %v", err)
	c.setStateLocked(StateDisconnected)
}

func (c *Channel) scheduleRetryLocked(gen int) {
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.retryTimer = nil
		c.retries++
		log.Printf("realtime: reconnecting (attempt %d/%d)", c.retries, c.maxRetries)
		c.setStateLocked(StateConnecting)
		c.gen++
		next := c.gen
		c.mu.Unlock()

		c.run(next)
	})
}

func isAbnormalClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code != websocket.CloseNormalClosure
	}
	// Transport-level errors count as abnormal.
	return true
}

func (c *Channel) pingLoop(conn Conn, stop chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
				log.Printf("realtime: ping failed: %v", err)
				return
			}
		}
	}
}

// handleMessage dispatches one inbound frame. Malformed frames and unknown
// types are logged and dropped, never fatal.
func (c *Channel) handleMessage(data []byte) {
	var msg model.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("realtime: failed to parse message: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMessage = &msg

	switch msg.Type {
	case model.MessageSensorData:
		var reading model.SensorReading
		if err := json.Unmarshal(msg.Data, &reading); err != nil {
			log.Printf("realtime: bad sensor_data payload: %v", err)
			return
		}
		c.latest = &reading

	case model.MessageAlert:
		var alert model.Alert
		if err := json.Unmarshal(msg.Data, &alert); err != nil {
			log.Printf("realtime: bad alert payload: %v", err)
			return
		}
		// Newest first; repeated alerts are kept, only the bound evicts.
		c.alerts = append([]model.Alert{alert}, c.alerts...)
		if len(c.alerts) > maxBufferedAlerts {
			c.alerts = c.alerts[:maxBufferedAlerts]
		}

	case model.MessagePong:
		// Keep-alive only.

	default:
		log.Printf("realtime: unknown message type %q", msg.Type)
	}
}
