package transport

import (
	"sync"
	"time"

	"PPClient/logger"
	"PPClient/tools/errs"
	"PPClient/tools/ids"
	"PPClient/tools/safe"

	"github.com/gorilla/websocket"
)

const (
	defaultSendQueue   = 256
	defaultDialTimeout = 5 * time.Second
	writeWait          = 10 * time.Second
)

// WSChannel implements Channel over a single websocket connection.
// One writer goroutine drains the send queue; the read loop dispatches
// MESSAGE frames to the per-topic handler.
type WSChannel struct {
	url         string
	dialTimeout time.Duration

	connectMu sync.Mutex // serializes connection attempts

	mu     sync.RWMutex
	state  State
	sess   *wsSession
	subs   map[string]*subEntry
	onDown func(err error)
}

type subEntry struct {
	sub     *Subscription
	handler Handler
}

// wsSession is one physical connection's lifetime. A fresh session is
// created per successful connect so that pumps of a dead connection
// can never tear down its successor.
type wsSession struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewWSChannel(url string) *WSChannel {
	return &WSChannel{
		url:         url,
		dialTimeout: defaultDialTimeout,
		state:       StateDisconnected,
		subs:        make(map[string]*subEntry),
	}
}

// SetDialTimeout overrides the handshake timeout (config-driven).
func (c *WSChannel) SetDialTimeout(d time.Duration) {
	if d > 0 {
		c.dialTimeout = d
	}
}

func (c *WSChannel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *WSChannel) Connected() bool { return c.State() == StateConnected }

func (c *WSChannel) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDown = fn
	c.mu.Unlock()
}

// Connect dials, performs the CONNECT/CONNECTED handshake and starts
// the pumps. Already-connected is a no-op success; concurrent calls
// are serialized so only one attempt is ever in flight.
func (c *WSChannel) Connect(token string) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.Connected() {
		return nil
	}
	c.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return errs.ErrConnection.WrapMsg("dial %s: %v", c.url, err)
	}

	connID := ids.GenerateString()
	if err := c.handshake(conn, connID, token); err != nil {
		_ = conn.Close()
		c.setState(StateDisconnected)
		return err
	}

	sess := &wsSession{
		conn:   conn,
		sendCh: make(chan []byte, defaultSendQueue),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.sess = sess
	c.state = StateConnected
	c.mu.Unlock()

	safe.SafeGo(func() { c.writePump(sess) })
	safe.SafeGo(func() { c.readPump(sess) })

	logger.Infof("[ws] connected conn_id=%s url=%s", connID, c.url)
	return nil
}

func (c *WSChannel) handshake(conn *websocket.Conn, connID, token string) error {
	deadline := time.Now().Add(c.dialTimeout)
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, connectFrame(connID, token).Encode()); err != nil {
		return errs.ErrConnection.WrapMsg("send CONNECT: %v", err)
	}
	_ = conn.SetReadDeadline(deadline)
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return errs.ErrConnection.WrapMsg("await CONNECTED: %v", err)
	}
	f, err := ParseFrame(raw)
	if err != nil {
		return errs.ErrConnection.WrapErr(err)
	}
	switch f.Type {
	case FrameConnected:
	case FrameError:
		return errs.ErrConnection.WrapMsg("handshake rejected: %s", f.Error)
	default:
		return errs.ErrConnection.WrapMsg("unexpected %s frame during handshake", f.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	return nil
}

// Subscribe registers a handler for a topic. While disconnected it
// logs and returns nil; switching conversations over a flapping link
// must not blow up the caller.
func (c *WSChannel) Subscribe(topic string, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.sess == nil {
		logger.Warnf("[ws] subscribe %s while %s, dropped", topic, c.state)
		return nil
	}
	sub := &Subscription{ID: ids.GenerateString(), Topic: topic}
	c.subs[topic] = &subEntry{sub: sub, handler: h}
	c.enqueueLocked(subscribeFrame(sub.ID, topic).Encode())
	return sub
}

// Unsubscribe removes a topic subscription; unknown topics are a no-op.
func (c *WSChannel) Unsubscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.subs[topic]
	if !ok {
		return
	}
	delete(c.subs, topic)
	if c.state == StateConnected && c.sess != nil {
		c.enqueueLocked(unsubscribeFrame(entry.sub.ID, topic).Encode())
	}
}

// Publish enqueues a SEND frame; fire-and-forget, drops with a warning
// while disconnected.
func (c *WSChannel) Publish(topic string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.sess == nil {
		logger.Warnf("[ws] publish to %s while %s, dropped", topic, c.state)
		return
	}
	c.enqueueLocked(sendFrame(topic, payload).Encode())
}

// enqueueLocked assumes c.mu is held. A full queue drops the frame
// rather than blocking the caller.
func (c *WSChannel) enqueueLocked(b []byte) {
	select {
	case c.sess.sendCh <- b:
	default:
		logger.Warnf("[ws] send queue full, frame dropped")
	}
}

// Disconnect tears down all subscriptions and the connection. Safe to
// call when already disconnected; never fires OnDisconnect.
func (c *WSChannel) Disconnect() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.subs = make(map[string]*subEntry)
	c.state = StateDisconnected
	c.mu.Unlock()

	if sess != nil {
		sess.close()
	}
}

func (s *wsSession) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// teardown handles a connection dying underneath us. It only acts if
// sess is still the live session, then reports the loss once.
func (c *WSChannel) teardown(sess *wsSession, err error) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		sess.close()
		return
	}
	c.sess = nil
	c.subs = make(map[string]*subEntry)
	c.state = StateDisconnected
	fn := c.onDown
	c.mu.Unlock()

	sess.close()
	logger.Warnf("[ws] connection lost: %v", err)
	if fn != nil {
		safe.SafeGo(func() { fn(err) })
	}
}

func (c *WSChannel) writePump(sess *wsSession) {
	for {
		select {
		case <-sess.done:
			return
		case b := <-sess.sendCh:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.teardown(sess, err)
				return
			}
		}
	}
}

func (c *WSChannel) readPump(sess *wsSession) {
	for {
		mt, raw, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-sess.done:
				// explicit Disconnect already ran
			default:
				c.teardown(sess, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		f, perr := ParseFrame(raw)
		if perr != nil {
			sample := raw
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Warnf("[ws] bad frame dropped err=%v sample=%q", perr, sample)
			continue
		}
		switch f.Type {
		case FrameMessage:
			c.dispatch(f)
		case FramePing:
			c.mu.Lock()
			if c.sess == sess {
				c.enqueueLocked((&Frame{Type: FramePong}).Encode())
			}
			c.mu.Unlock()
		case FrameError:
			logger.Warnf("[ws] server error frame: %s", f.Error)
		default:
			// CONNECTED after handshake, PONG etc: nothing to do
		}
	}
}

func (c *WSChannel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *WSChannel) dispatch(f *Frame) {
	c.mu.RLock()
	entry := c.subs[f.Topic]
	c.mu.RUnlock()
	if entry == nil {
		// late frame for a topic we already left
		logger.Debug("[ws] frame for unsubscribed topic " + f.Topic)
		return
	}
	entry.handler(f.Payload)
}
