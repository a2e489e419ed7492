package sync

import (
	"context"
	"io"
	stdsync "sync"

	"PPClient/model"
	"PPClient/service/rest"
	"PPClient/service/transport"
	"PPClient/tools/errs"
)

// fakeChannel is an in-memory transport.Channel. Tests inject inbound
// events with Deliver and inspect published payloads.
type fakeChannel struct {
	mu         stdsync.Mutex
	connected  bool
	connectErr error
	subs       map[string]transport.Handler
	published  map[string][][]byte
	onDown     func(error)
	subscribes []string
	unsubs     []string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		subs:      make(map[string]transport.Handler),
		published: make(map[string][][]byte),
	}
}

func (c *fakeChannel) Connect(string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeChannel) Subscribe(topic string, h transport.Handler) *transport.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	c.subs[topic] = h
	c.subscribes = append(c.subscribes, topic)
	return &transport.Subscription{ID: topic, Topic: topic}
}

func (c *fakeChannel) Unsubscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, topic)
	c.unsubs = append(c.unsubs, topic)
}

func (c *fakeChannel) Publish(topic string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.published[topic] = append(c.published[topic], cp)
}

func (c *fakeChannel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.subs = make(map[string]transport.Handler)
}

func (c *fakeChannel) State() transport.State {
	if c.Connected() {
		return transport.StateConnected
	}
	return transport.StateDisconnected
}

func (c *fakeChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeChannel) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDown = fn
}

// Deliver pushes one raw payload at a subscribed handler, as the read
// loop would. Unsubscribed topics drop silently.
func (c *fakeChannel) Deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.subs[topic]
	c.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

// Drop simulates an unexpected connection loss.
func (c *fakeChannel) Drop(err error) {
	c.mu.Lock()
	c.connected = false
	c.subs = make(map[string]transport.Handler)
	fn := c.onDown
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *fakeChannel) publishedTo(topic string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.published[topic]))
	copy(out, c.published[topic])
	return out
}

func (c *fakeChannel) subscribedTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.subs))
	for topic := range c.subs {
		out = append(out, topic)
	}
	return out
}

// fakeAPI implements API with overridable function fields.
type fakeAPI struct {
	mu        stdsync.Mutex
	pages     map[int64][]model.Message // newest-first, as the server returns
	pagesFn   func(ctx context.Context, conversationID int64) ([]model.Message, error)
	readCalls []readCall
	clearErr  error
	convs     []model.Conversation
	convsErr  error
}

type readCall struct {
	ConversationID int64
	MessageID      int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: make(map[int64][]model.Message)}
}

func (a *fakeAPI) Conversations(context.Context) ([]model.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.convsErr != nil {
		return nil, a.convsErr
	}
	return a.convs, nil
}

func (a *fakeAPI) Messages(ctx context.Context, conversationID int64, _, _ int) (*model.MessagePage, error) {
	if a.pagesFn != nil {
		content, err := a.pagesFn(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		return &model.MessagePage{Content: content}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return &model.MessagePage{Content: a.pages[conversationID]}, nil
}

func (a *fakeAPI) MarkRead(_ context.Context, conversationID, messageID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readCalls = append(a.readCalls, readCall{conversationID, messageID})
	return nil
}

func (a *fakeAPI) reads() []readCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]readCall, len(a.readCalls))
	copy(out, a.readCalls)
	return out
}

func (a *fakeAPI) CreateDirect(_ context.Context, userID int64) (*model.Conversation, error) {
	return &model.Conversation{ID: 1000 + userID, Type: model.ConversationDirect}, nil
}

func (a *fakeAPI) CreateGroup(_ context.Context, name string, _ []int64) (*model.Conversation, error) {
	if name == "" {
		return nil, errs.ErrRequest.WrapMsg("status 400: name required")
	}
	return &model.Conversation{ID: 2000, Type: model.ConversationGroup, Name: name}, nil
}

func (a *fakeAPI) AddMember(context.Context, int64, int64) error { return nil }

func (a *fakeAPI) ClearChat(context.Context, int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clearErr
}

func (a *fakeAPI) SearchUsers(context.Context, string) ([]model.User, error) { return nil, nil }

func (a *fakeAPI) UploadFile(context.Context, string, io.Reader) (*rest.UploadResult, error) {
	return &rest.UploadResult{URL: "/files/x", ContentType: "application/octet-stream"}, nil
}
