package model

import (
	"testing"

	"PPClient/tools/errs"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessageEvent(t *testing.T) {
	raw := []byte(`{
		"id": 42,
		"conversationId": 7,
		"sender": {"id": 3, "username": "bob"},
		"type": "TEXT",
		"content": "hi there",
		"status": "SENT",
		"createdAt": "2025-03-01T10:20:30"
	}`)
	ev, err := DecodeEvent(EventMessage, raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Message)
	assert.Equal(t, EventMessage, ev.Kind)
	assert.Equal(t, int64(42), ev.Message.ID)
	assert.Equal(t, int64(7), ev.Message.ConversationID)
	assert.Equal(t, "bob", ev.Message.Sender.Username)
	assert.Equal(t, MessageText, ev.Message.Type)
	assert.Equal(t, StatusSent, ev.Message.Status)
	assert.Equal(t, 2025, ev.Message.CreatedAt.Year())
}

func TestDecodeTypingEvent(t *testing.T) {
	ev, err := DecodeEvent(EventTyping, []byte(`{"username":"bob","typing":true}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Typing)
	assert.Equal(t, "bob", ev.Typing.Username)
	assert.True(t, ev.Typing.Typing)
}

func TestDecodeStatusEvent(t *testing.T) {
	raw := []byte(`{"messageId":42,"conversationId":7,"status":"READ","username":"alice","timestamp":"2025-03-01T10:20:31"}`)
	ev, err := DecodeEvent(EventStatus, raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Status)
	assert.Equal(t, int64(42), ev.Status.MessageID)
	assert.Equal(t, StatusRead, ev.Status.Status)
}

func TestDecodeEventMalformed(t *testing.T) {
	cases := []struct {
		name string
		kind EventKind
		raw  string
	}{
		{"not json", EventMessage, `{{{`},
		{"message without id", EventMessage, `{"content":"x"}`},
		{"typing without username", EventTyping, `{"typing":true}`},
		{"status without id", EventStatus, `{"status":"READ"}`},
		{"tag contradicts topic", EventTyping, `{"type":"status","username":"bob","typing":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEvent(tc.kind, []byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrParse), "want ErrParse, got %v", err)
		})
	}
}

func TestDecodeEventServerEnvelopeTag(t *testing.T) {
	// the server's event envelopes tag message-family events MESSAGE_*
	raw := []byte(`{"type":"MESSAGE_SENT","id":5,"conversationId":1,"status":"SENT","createdAt":"2025-03-01T00:00:00"}`)
	ev, err := DecodeEvent(EventMessage, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.Message.ID)
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusSent.Rank(), StatusDelivered.Rank())
	assert.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
	assert.Equal(t, 0, Status("BOGUS").Rank())
}
