package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"PPClient/tools/decode"
	"PPClient/tools/errs"
)

// EventKind discriminates inbound real-time events. The subscribed
// topic implies a kind, and payloads may additionally carry an explicit
// "type" tag; when both are present they must agree.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventTyping  EventKind = "typing"
	EventStatus  EventKind = "status"
)

// TypingEvent is the per-conversation typing signal payload.
type TypingEvent struct {
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// StatusEvent is a delivery-status change for a single message.
type StatusEvent struct {
	MessageID      int64     `json:"messageId"`
	ConversationID int64     `json:"conversationId"`
	Status         Status    `json:"status"`
	UserID         int64     `json:"userId,omitempty"`
	Username       string    `json:"username,omitempty"`
	Timestamp      Timestamp `json:"timestamp"`
}

// Event is the tagged variant handed to the synchronizer. Exactly one
// of the pointer fields is set, matching Kind.
type Event struct {
	Kind    EventKind
	Message *Message
	Typing  *TypingEvent
	Status  *StatusEvent
}

// DecodeEvent validates and parses one raw payload at the transport
// boundary. A malformed payload yields ErrParse; the caller drops that
// single event and carries on.
func DecodeEvent(kind EventKind, raw []byte) (*Event, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, errs.ErrParse.WrapMsg("bad json: %v", err)
	}

	// Honor an explicit type tag when the payload carries one. Server
	// event envelopes use eventType values like MESSAGE_SENT.
	if tagged, ok := generic["type"].(string); ok {
		if declared, ok := kindFromTag(tagged); ok && declared != kind {
			return nil, errs.ErrParse.WrapMsg("topic says %s, payload says %s", kind, declared)
		}
	}

	ev := &Event{Kind: kind}
	switch kind {
	case EventMessage:
		msg, err := decode.DecodeStruct[Message](generic)
		if err != nil {
			return nil, errs.ErrParse.WrapErr(err)
		}
		if msg.ID == 0 {
			return nil, errs.ErrParse.WrapMsg("message event without id")
		}
		ev.Message = msg
	case EventTyping:
		t, err := decode.DecodeStruct[TypingEvent](generic)
		if err != nil {
			return nil, errs.ErrParse.WrapErr(err)
		}
		if t.Username == "" {
			return nil, errs.ErrParse.WrapMsg("typing event without username")
		}
		ev.Typing = t
	case EventStatus:
		s, err := decode.DecodeStruct[StatusEvent](generic)
		if err != nil {
			return nil, errs.ErrParse.WrapErr(err)
		}
		if s.MessageID == 0 {
			return nil, errs.ErrParse.WrapMsg("status event without messageId")
		}
		ev.Status = s
	default:
		return nil, errs.ErrParse.WrapMsg("unknown event kind %q", kind)
	}
	return ev, nil
}

func kindFromTag(tag string) (EventKind, bool) {
	switch EventKind(strings.ToLower(tag)) {
	case EventMessage, EventTyping, EventStatus:
		return EventKind(strings.ToLower(tag)), true
	}
	// MESSAGE_SENT / MESSAGE_DELIVERED / ... envelopes are message-family.
	if strings.HasPrefix(tag, "MESSAGE_") {
		return EventMessage, true
	}
	return "", false
}

// MustJSON is a test/demo helper that panics on marshal failure.
func MustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return b
}
