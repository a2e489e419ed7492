package transport

import (
	"strings"
	"sync"
	"time"

	"PPClient/logger"
	"PPClient/tools/errs"
	"PPClient/tools/ids"

	"github.com/nats-io/nats.go"
)

// NatsChannel implements Channel on a NATS connection, for deployments
// where the gateway bridges broker topics onto NATS subjects instead
// of raw websockets. Topic names map onto subjects by swapping path
// separators: /topic/conversations/7/typing -> topic.conversations.7.typing.
type NatsChannel struct {
	url     string
	name    string
	timeout time.Duration

	connectMu sync.Mutex

	mu     sync.RWMutex
	state  State
	nc     *nats.Conn
	subs   map[string]*natsSub
	onDown func(err error)
}

type natsSub struct {
	sub    *Subscription
	handle *nats.Subscription
}

type NatsOption func(*NatsChannel)

func WithNatsName(name string) NatsOption {
	return func(c *NatsChannel) { c.name = name }
}

func WithNatsTimeout(d time.Duration) NatsOption {
	return func(c *NatsChannel) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewNatsChannel(url string, opts ...NatsOption) *NatsChannel {
	c := &NatsChannel{
		url:     url,
		name:    "ppclient",
		timeout: 3 * time.Second,
		state:   StateDisconnected,
		subs:    make(map[string]*natsSub),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubjectOf converts a broker topic into a NATS subject.
func SubjectOf(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func (c *NatsChannel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *NatsChannel) Connected() bool { return c.State() == StateConnected }

func (c *NatsChannel) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDown = fn
	c.mu.Unlock()
}

func (c *NatsChannel) Connect(token string) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.Connected() {
		return nil
	}
	c.setState(StateConnecting)

	opts := []nats.Option{
		nats.Name(c.name),
		nats.Token(token),
		nats.Timeout(c.timeout),
		// reconnect policy is owned by the synchronizer
		nats.NoReconnect(),
		nats.ClosedHandler(func(nc *nats.Conn) {
			c.lost(nc.LastError())
		}),
	}
	nc, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.setState(StateDisconnected)
		return errs.ErrConnection.WrapMsg("nats connect %s: %v", c.url, err)
	}

	c.mu.Lock()
	c.nc = nc
	c.state = StateConnected
	c.mu.Unlock()

	logger.Infof("[nats] connected url=%s", c.url)
	return nil
}

func (c *NatsChannel) Subscribe(topic string, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.nc == nil {
		logger.Warnf("[nats] subscribe %s while %s, dropped", topic, c.state)
		return nil
	}
	handle, err := c.nc.Subscribe(SubjectOf(topic), func(m *nats.Msg) {
		h(m.Data)
	})
	if err != nil {
		logger.Warnf("[nats] subscribe %s failed: %v", topic, err)
		return nil
	}
	sub := &Subscription{ID: ids.GenerateString(), Topic: topic}
	c.subs[topic] = &natsSub{sub: sub, handle: handle}
	return sub
}

func (c *NatsChannel) Unsubscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.subs[topic]
	if !ok {
		return
	}
	delete(c.subs, topic)
	if err := entry.handle.Unsubscribe(); err != nil {
		logger.Warnf("[nats] unsubscribe %s: %v", topic, err)
	}
}

func (c *NatsChannel) Publish(topic string, payload []byte) {
	c.mu.RLock()
	nc := c.nc
	state := c.state
	c.mu.RUnlock()
	if state != StateConnected || nc == nil {
		logger.Warnf("[nats] publish to %s while %s, dropped", topic, state)
		return
	}
	if err := nc.Publish(SubjectOf(topic), payload); err != nil {
		logger.Warnf("[nats] publish %s: %v", topic, err)
	}
}

func (c *NatsChannel) Disconnect() {
	c.mu.Lock()
	nc := c.nc
	c.nc = nil
	c.subs = make(map[string]*natsSub)
	c.state = StateDisconnected
	c.mu.Unlock()

	if nc != nil {
		nc.Close()
	}
}

// lost handles the server closing the connection underneath us.
func (c *NatsChannel) lost(err error) {
	c.mu.Lock()
	if c.nc == nil {
		// explicit Disconnect already ran
		c.mu.Unlock()
		return
	}
	c.nc = nil
	c.subs = make(map[string]*natsSub)
	c.state = StateDisconnected
	fn := c.onDown
	c.mu.Unlock()

	logger.Warnf("[nats] connection lost: %v", err)
	if fn != nil {
		fn(err)
	}
}

func (c *NatsChannel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
