package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"villas/metrics"

	"github.com/gorilla/websocket"
)

// ConnState is the lifecycle state of a Channel.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Terminated
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sink is told about every notification the channel stores.
type Sink interface {
	Notified(ctx context.Context, n Notification) error
}

// Channel keeps a websocket open to the backend push endpoint, reconnecting
// with backoff, and folds every inbound frame into a Store.
type Channel struct {
	endpoint string
	token    string
	dialer   *websocket.Dialer
	store    *Store
	sinks    []Sink

	mu      sync.Mutex
	state   ConnState
	conn    *websocket.Conn
	backoff *Backoff
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewChannel prepares a channel; nothing is dialed until Start.
func NewChannel(endpoint, token string, store *Store, backoff *Backoff, sinks ...Sink) *Channel {
	if backoff == nil {
		backoff = NewBackoff(DefaultBaseDelay, DefaultMaxDelay)
	}
	return &Channel{
		endpoint: endpoint,
		token:    token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		store:   store,
		sinks:   sinks,
		backoff: backoff,
		state:   Disconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the consecutive failed attempts since the last open.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backoff.Attempts()
}

// Start launches the connect loop. Calling it again, or after Shutdown,
// does nothing.
func (c *Channel) Start(parent context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil || c.state == Terminated {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx)
}

// Shutdown stops the channel for good. The channel is marked terminated
// before the socket is closed, so the resulting close cannot schedule a
// reconnect; pending reconnect timers are cancelled. It blocks until the
// connect loop has exited.
func (c *Channel) Shutdown() {
	c.mu.Lock()
	if c.state == Terminated {
		c.mu.Unlock()
		return
	}
	c.state = Terminated
	conn := c.conn
	c.conn = nil
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	metrics.ObserveChannelState(int(Terminated))

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
	if done != nil {
		<-done
	}
	log.Println("🛑 notification channel terminated")
}

func (c *Channel) dialURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse notification endpoint: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// transition moves to next unless the channel was terminated.
func (c *Channel) transition(next ConnState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Terminated {
		return false
	}
	c.state = next
	metrics.ObserveChannelState(int(next))
	return true
}

// attach records an open socket and resets the backoff.
func (c *Channel) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Terminated {
		return false
	}
	c.conn = conn
	c.state = Connected
	c.backoff.Reset()
	metrics.ObserveChannelState(int(Connected))
	return true
}

// detach forgets a closed socket.
func (c *Channel) detach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	if c.state == Terminated {
		return false
	}
	c.state = Disconnected
	metrics.ObserveChannelState(int(Disconnected))
	return true
}

func (c *Channel) terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Terminated
}

// wait sleeps for the next backoff delay; false means stop.
func (c *Channel) wait(ctx context.Context) bool {
	c.mu.Lock()
	delay := c.backoff.Next()
	attempt := c.backoff.Attempts()
	c.mu.Unlock()

	metrics.IncReconnect()
	log.Printf("notification channel: reconnect #%d in %v", attempt, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	target, err := c.dialURL()
	if err != nil {
		log.Printf("❌ notification channel: %v", err)
		return
	}

	for {
		if !c.transition(Connecting) {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, target, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("notification channel: connect failed: %v", err)
			if !c.transition(Disconnected) || !c.wait(ctx) {
				return
			}
			continue
		}

		if !c.attach(conn) {
			conn.Close()
			return
		}
		log.Println("✅ notification channel connected")

		c.readLoop(ctx, conn)

		if !c.detach(conn) || !c.wait(ctx) {
			return
		}
	}
}

// readLoop handles frames one at a time, in arrival order, until the
// socket fails.
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !c.terminated() {
				log.Printf("notification channel: connection lost: %v", err)
			}
			return
		}
		if c.terminated() {
			return
		}
		c.HandleFrame(ctx, frame)
	}
}

// HandleFrame decodes one frame and stores its notifications. A frame that
// cannot be decoded is logged and dropped. It returns how many
// notifications were stored.
func (c *Channel) HandleFrame(ctx context.Context, frame []byte) int {
	list, err := Decode(frame)
	if err != nil {
		log.Printf("⚠️ dropping notification frame: %v", err)
		metrics.ObserveFrame("dropped")
		return 0
	}

	for _, n := range list {
		c.store.AddNotification(n)
		stored, ok := c.store.Get(n.ID)
		if !ok {
			continue
		}
		for _, s := range c.sinks {
			if err := s.Notified(ctx, stored); err != nil {
				log.Printf("⚠️ notification sink: %v", err)
			}
		}
	}
	metrics.ObserveFrame("ok")
	return len(list)
}
