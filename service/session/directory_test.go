package session

import (
	"testing"
	"time"

	"PPClient/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conv(id int64, at time.Time) model.Conversation {
	return model.Conversation{
		ID:        id,
		Type:      model.ConversationDirect,
		UpdatedAt: model.NewTimestamp(at),
	}
}

func idsOf(convs []model.Conversation) []int64 {
	out := make([]int64, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func TestSetConversationsSortsDescending(t *testing.T) {
	s := NewStore()
	s.SetConversations([]model.Conversation{
		conv(1, time.Unix(1, 0)),
		conv(2, time.Unix(3, 0)),
		conv(3, time.Unix(2, 0)),
	})
	assert.Equal(t, []int64{2, 3, 1}, idsOf(s.Conversations()))
}

func TestSetConversationsDropsDuplicateIDs(t *testing.T) {
	s := NewStore()
	s.SetConversations([]model.Conversation{
		conv(1, time.Unix(2, 0)),
		conv(1, time.Unix(1, 0)),
	})
	assert.Len(t, s.Conversations(), 1)
}

func TestUpsertFromEventResorts(t *testing.T) {
	s := NewStore()
	// directory X(t=1), Y(t=2), Z(t=3) -> displayed [Z, Y, X]
	s.SetConversations([]model.Conversation{
		conv(10, time.Unix(1, 0)), // X
		conv(20, time.Unix(2, 0)), // Y
		conv(30, time.Unix(3, 0)), // Z
	})

	m := msg(99, 10, time.Unix(4, 0)) // event for X at t=4
	s.UpsertFromEvent(m)

	got := s.Conversations()
	assert.Equal(t, []int64{10, 30, 20}, idsOf(got))
	require.NotNil(t, got[0].LastMessage)
	assert.Equal(t, int64(99), got[0].LastMessage.ID)
	assert.True(t, got[0].UpdatedAt.Time.Equal(time.Unix(4, 0).UTC()))
}

func TestUpsertFromEventStableOnTies(t *testing.T) {
	s := NewStore()
	at := time.Unix(5, 0)
	s.SetConversations([]model.Conversation{conv(1, at), conv(2, at), conv(3, at)})
	s.UpsertFromEvent(msg(7, 2, at)) // same timestamp, order must hold
	assert.Equal(t, []int64{1, 2, 3}, idsOf(s.Conversations()))
}

func TestUpsertFromEventUnknownConversation(t *testing.T) {
	s := NewStore()
	s.SetConversations([]model.Conversation{conv(1, time.Unix(1, 0))})
	s.UpsertFromEvent(msg(7, 999, time.Unix(9, 0)))
	assert.Equal(t, []int64{1}, idsOf(s.Conversations()))
}

func TestPrependNewConversation(t *testing.T) {
	s := NewStore()
	s.SetConversations([]model.Conversation{conv(1, time.Unix(10, 0))})
	s.Prepend(conv(2, time.Unix(1, 0))) // older timestamp, still front
	assert.Equal(t, []int64{2, 1}, idsOf(s.Conversations()))
}

func TestClearUnread(t *testing.T) {
	s := NewStore()
	c := conv(1, time.Unix(1, 0))
	c.UnreadCount = 5
	s.SetConversations([]model.Conversation{c})

	s.ClearUnread(1)
	assert.Zero(t, s.Conversations()[0].UnreadCount)
	s.ClearUnread(42) // unknown id is a no-op
}
