package sync

import (
	"context"
	"encoding/json"
	"io"
	stdsync "sync"
	"time"

	"PPClient/global"
	"PPClient/logger"
	"PPClient/model"
	"PPClient/service/rest"
	"PPClient/service/session"
	"PPClient/service/transport"
	"PPClient/tools/safe"
	"PPClient/tools/security"
)

// LifecycleState tracks the conversation-selection state machine.
type LifecycleState int32

const (
	StateIdle      LifecycleState = iota // no conversation selected
	StateLoading                         // history fetch in flight
	StateActive                          // subscribed, history loaded
	StateSwitching                       // tearing down the previous subscription
)

func (s LifecycleState) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateActive:
		return "ACTIVE"
	case StateSwitching:
		return "SWITCHING"
	default:
		return "IDLE"
	}
}

// API is the slice of the REST surface the synchronizer needs;
// *rest.Client satisfies it, tests plug in fakes.
type API interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
	Messages(ctx context.Context, conversationID int64, page, size int) (*model.MessagePage, error)
	MarkRead(ctx context.Context, conversationID, messageID int64) error
	CreateDirect(ctx context.Context, userID int64) (*model.Conversation, error)
	CreateGroup(ctx context.Context, name string, memberIDs []int64) (*model.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID int64) error
	ClearChat(ctx context.Context, conversationID int64) error
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
	UploadFile(ctx context.Context, filename string, r io.Reader) (*rest.UploadResult, error)
}

// Synchronizer reconciles REST-loaded history with live push events:
// per-conversation subscriptions, message dedup, delivery status, read
// receipts and the typing-indicator lifecycle. It owns its transport
// channel and session store; nothing here is process-global.
type Synchronizer struct {
	cfg   global.AppConfig
	api   API
	ch    transport.Channel
	store *session.Store
	self  security.Identity
	token string

	mu           stdsync.Mutex
	state        LifecycleState
	epoch        uint64 // bumped on every selection; stale completions check it
	selectCancel context.CancelFunc
	closed       bool
	reconnecting bool

	typing *typingTracker
}

func New(cfg global.AppConfig, api API, ch transport.Channel, store *session.Store, self security.Identity, token string) *Synchronizer {
	safe.MustNotNil(api, "api")
	safe.MustNotNil(ch, "ch")
	safe.MustNotNil(store, "store")
	s := &Synchronizer{
		cfg:   cfg,
		api:   api,
		ch:    ch,
		store: store,
		self:  self,
		token: token,
		state: StateIdle,
	}
	s.typing = newTypingTracker(cfg.TypingExpiry(), s.onTypingExpired)
	ch.OnDisconnect(s.onConnectionLost)
	return s
}

// State returns the selection-lifecycle state.
func (s *Synchronizer) State() LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports the transport state for polling surfaces.
func (s *Synchronizer) Connected() bool { return s.ch.Connected() }

// Store exposes the session store for read-only rendering.
func (s *Synchronizer) Store() *session.Store { return s.store }

// Close tears down timers, the in-flight selection and the transport.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.state = StateIdle
	if s.selectCancel != nil {
		s.selectCancel()
		s.selectCancel = nil
	}
	s.mu.Unlock()

	s.typing.Reset()
	s.ch.Disconnect()
}

// ---- connection ----

// ensureConnected lazily connects on the first real interaction and
// installs the per-user queue subscriptions. Idempotent when already
// connected; the channel serializes concurrent attempts.
func (s *Synchronizer) ensureConnected() error {
	if s.ch.Connected() {
		return nil
	}
	if err := s.ch.Connect(s.token); err != nil {
		return err
	}
	s.subscribeUserQueues()
	return nil
}

func (s *Synchronizer) subscribeUserQueues() {
	s.ch.Subscribe(transport.OfflineQueueTopic, func(p []byte) {
		s.handleEvent(model.EventMessage, p, 0)
	})
	s.ch.Subscribe(transport.StatusQueueTopic, func(p []byte) {
		s.handleEvent(model.EventStatus, p, 0)
	})
}

// onConnectionLost is the deliberate reconnect policy: exponential
// backoff between the configured bounds, then re-install the user
// queues and the active conversation's topics.
func (s *Synchronizer) onConnectionLost(err error) {
	s.mu.Lock()
	if s.closed || !s.cfg.Reconnect || s.reconnecting {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	logger.Warnf("[sync] connection lost: %v", err)

	safe.SafeGo(func() {
		defer func() {
			s.mu.Lock()
			s.reconnecting = false
			s.mu.Unlock()
		}()

		wait := s.cfg.ReconnectMinWait()
		for {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || s.ch.Connected() {
				return
			}
			time.Sleep(wait)
			if err := s.ensureConnected(); err != nil {
				logger.Warnf("[sync] reconnect failed, retrying in %s: %v", wait, err)
				wait *= 2
				if ceil := s.cfg.ReconnectMaxWait(); wait > ceil {
					wait = ceil
				}
				continue
			}
			s.resubscribeActive()
			logger.Infof("[sync] reconnected")
			return
		}
	})
}

// resubscribeActive re-installs the active conversation's topics after
// a reconnect (connection loss dropped every subscription).
func (s *Synchronizer) resubscribeActive() {
	s.mu.Lock()
	e := s.epoch
	s.mu.Unlock()
	if active := s.store.Active(); active != nil {
		s.subscribeConversation(active.ID, e)
	}
}

// ---- directory ----

// LoadConversations refreshes the directory. Background reconciliation:
// failures are logged and the previous directory stays.
func (s *Synchronizer) LoadConversations(ctx context.Context) {
	convs, err := s.api.Conversations(ctx)
	if err != nil {
		logger.Errorf("[sync] load conversations: %v", err)
		return
	}
	s.store.SetConversations(convs)
}

// CreateDirect opens a one-on-one conversation. Errors propagate so
// the caller can abort opening the thread.
func (s *Synchronizer) CreateDirect(ctx context.Context, userID int64) (*model.Conversation, error) {
	conv, err := s.api.CreateDirect(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store.Prepend(*conv)
	return conv, nil
}

// CreateGroup creates a group conversation. Errors propagate.
func (s *Synchronizer) CreateGroup(ctx context.Context, name string, memberIDs []int64) (*model.Conversation, error) {
	conv, err := s.api.CreateGroup(ctx, name, memberIDs)
	if err != nil {
		return nil, err
	}
	s.store.Prepend(*conv)
	return conv, nil
}

// AddMember adds a user to a group. Errors propagate for UI display.
func (s *Synchronizer) AddMember(ctx context.Context, conversationID, userID int64) error {
	return s.api.AddMember(ctx, conversationID, userID)
}

// SearchUsers proxies the user search for the new-conversation picker.
func (s *Synchronizer) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	return s.api.SearchUsers(ctx, query)
}

// UploadFile uploads an attachment; the mechanics are opaque, only the
// resulting URL and content type feed into SendMessage. Errors
// propagate with server detail when present.
func (s *Synchronizer) UploadFile(ctx context.Context, filename string, r io.Reader) (*rest.UploadResult, error) {
	return s.api.UploadFile(ctx, filename, r)
}

// ---- selection ----

// SelectConversation makes conv the active thread: tears down the
// previous subscriptions, resets the session, optimistically clears
// the unread counter, loads one page of history (reversed into
// ascending order), emits a read receipt for the newest message and
// subscribes the three conversation topics. Any REST failure is
// logged; the UI is left with an empty thread rather than an error.
//
// A selection that is overtaken by a newer one is abandoned: its
// context is cancelled and every completion re-checks the selection
// epoch before touching the store.
func (s *Synchronizer) SelectConversation(ctx context.Context, conv model.Conversation) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.epoch++
	e := s.epoch
	if s.selectCancel != nil {
		s.selectCancel() // real cancellation for the still-pending fetch
	}
	sctx, cancel := context.WithCancel(ctx)
	s.selectCancel = cancel
	prev := s.store.ActiveID()
	if prev != 0 {
		s.state = StateSwitching
	}
	s.mu.Unlock()

	if prev != 0 && prev != conv.ID {
		s.unsubscribeConversation(prev)
	}
	s.typing.Reset()
	s.store.SetActive(&conv) // resets thread + typing atomically
	s.store.ClearUnread(conv.ID)

	s.setState(StateLoading)

	if err := s.ensureConnected(); err != nil {
		logger.Errorf("[sync] connect during select: %v", err)
		// fall through: history can still load over REST
	}

	page, err := s.api.Messages(sctx, conv.ID, 0, s.cfg.PageSize)
	if err != nil {
		logger.Errorf("[sync] load messages conv=%d: %v", conv.ID, err)
		s.setStateIfCurrent(e, StateActive)
		return
	}
	if !s.stillCurrent(e) {
		return // a newer selection won the race
	}

	history := reverseMessages(page.Content)
	s.store.InstallHistory(history)
	if len(history) > 0 {
		s.markRead(conv.ID, history[len(history)-1].ID)
	}

	s.subscribeConversation(conv.ID, e)
	s.setStateIfCurrent(e, StateActive)
}

func (s *Synchronizer) subscribeConversation(conversationID int64, e uint64) {
	s.ch.Subscribe(transport.ConversationMessagesTopic(conversationID), func(p []byte) {
		s.handleEvent(model.EventMessage, p, e)
	})
	s.ch.Subscribe(transport.ConversationTypingTopic(conversationID), func(p []byte) {
		s.handleEvent(model.EventTyping, p, e)
	})
	s.ch.Subscribe(transport.ConversationStatusTopic(conversationID), func(p []byte) {
		s.handleEvent(model.EventStatus, p, e)
	})
}

func (s *Synchronizer) unsubscribeConversation(conversationID int64) {
	s.ch.Unsubscribe(transport.ConversationMessagesTopic(conversationID))
	s.ch.Unsubscribe(transport.ConversationTypingTopic(conversationID))
	s.ch.Unsubscribe(transport.ConversationStatusTopic(conversationID))
}

func (s *Synchronizer) stillCurrent(e uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.epoch == e
}

func (s *Synchronizer) setState(st LifecycleState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Synchronizer) setStateIfCurrent(e uint64, st LifecycleState) {
	s.mu.Lock()
	if !s.closed && s.epoch == e {
		s.state = st
	}
	s.mu.Unlock()
}

// ---- outbound ----

// SendMessage publishes a send intent. No provisional message is
// appended locally; the authoritative message arrives back on the
// conversation topic and goes through normal reconciliation.
func (s *Synchronizer) SendMessage(content string, mtype model.MessageType, attachmentURL, mimeType string) {
	active := s.store.Active()
	if active == nil {
		logger.Warnf("[sync] send without active conversation, dropped")
		return
	}
	if mtype == "" {
		mtype = model.MessageText
	}
	req := model.SendMessageRequest{
		ConversationID: active.ID,
		Type:           mtype,
		Content:        content,
		AttachmentURL:  attachmentURL,
		MimeType:       mimeType,
	}
	b, err := json.Marshal(req)
	if err != nil {
		logger.Errorf("[sync] marshal send request: %v", err)
		return
	}
	s.ch.Publish(transport.SendDestination(active.ID), b)
}

// SendTyping publishes the boolean typing signal for the active
// conversation; no-op when idle. Callers debounce via TypingDebouncer.
func (s *Synchronizer) SendTyping(typing bool) {
	active := s.store.Active()
	if active == nil {
		return
	}
	b, _ := json.Marshal(map[string]bool{"typing": typing})
	s.ch.Publish(transport.TypingDestination(active.ID), b)
}

// NewDebouncer builds the composer-side debouncer wired to SendTyping,
// using the configured idle window.
func (s *Synchronizer) NewDebouncer() *TypingDebouncer {
	return NewTypingDebouncer(s.cfg.TypingIdle(), s.SendTyping)
}

// ClearChat wipes the active conversation's history server-side, then
// empties the local list. On failure the list stays untouched.
func (s *Synchronizer) ClearChat(ctx context.Context) error {
	active := s.store.Active()
	if active == nil {
		return nil
	}
	if err := s.api.ClearChat(ctx, active.ID); err != nil {
		logger.Errorf("[sync] clear chat conv=%d: %v", active.ID, err)
		return err
	}
	s.store.ClearMessages()
	return nil
}

// markRead posts a read receipt in the background; failures are logged
// only (background reconciliation never surfaces).
func (s *Synchronizer) markRead(conversationID, messageID int64) {
	safe.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.api.MarkRead(ctx, conversationID, messageID); err != nil {
			logger.Errorf("[sync] mark read conv=%d msg=%d: %v", conversationID, messageID, err)
		}
	})
}

// ---- inbound reconciliation ----

// handleEvent is the single entry point for raw transport payloads.
// Payloads are validated into tagged variants at this boundary; a
// malformed event is dropped alone, others are unaffected. epoch==0
// marks the per-user queues, which outlive conversation selections.
func (s *Synchronizer) handleEvent(kind model.EventKind, payload []byte, e uint64) {
	ev, err := model.DecodeEvent(kind, payload)
	if err != nil {
		logger.Warnf("[sync] dropped %s event: %v", kind, err)
		return
	}
	if e != 0 && !s.stillCurrent(e) {
		// a handler of a previous selection fired late
		return
	}
	switch ev.Kind {
	case model.EventMessage:
		s.onMessageEvent(*ev.Message)
	case model.EventTyping:
		s.onTypingEvent(*ev.Typing)
	case model.EventStatus:
		s.onStatusEvent(*ev.Status)
	}
}

// onMessageEvent reconciles one inbound message: append-at-tail with
// dedup when it belongs to the active thread, directory upsert and
// resort always, and an immediate read receipt when the thread is on
// screen.
func (s *Synchronizer) onMessageEvent(m model.Message) {
	activeID := s.store.ActiveID()
	if activeID == m.ConversationID {
		if s.store.AppendMessage(m) {
			s.markRead(m.ConversationID, m.ID)
		}
	}
	s.store.UpsertFromEvent(m)
}

func (s *Synchronizer) onStatusEvent(ev model.StatusEvent) {
	if !s.store.SetStatus(ev.MessageID, ev.Status) {
		logger.Debug("[sync] status event ignored (unknown id or downgrade)")
	}
}

func (s *Synchronizer) onTypingEvent(ev model.TypingEvent) {
	if ev.Username == s.self.Username {
		return // own echo
	}
	if ev.Typing {
		s.store.AddTyping(ev.Username)
		s.typing.Touch(ev.Username)
		return
	}
	s.typing.Stop(ev.Username)
	s.store.RemoveTyping(ev.Username)
}

func (s *Synchronizer) onTypingExpired(username string) {
	s.store.RemoveTyping(username)
}

func reverseMessages(in []model.Message) []model.Message {
	out := make([]model.Message, len(in))
	for i, m := range in {
		out[len(in)-1-i] = m
	}
	return out
}
