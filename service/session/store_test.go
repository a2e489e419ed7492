package session

import (
	"testing"
	"time"

	"PPClient/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, conv int64, at time.Time) model.Message {
	return model.Message{
		ID:             id,
		ConversationID: conv,
		Type:           model.MessageText,
		Status:         model.StatusSent,
		CreatedAt:      model.NewTimestamp(at),
	}
}

func TestAppendMessageDedup(t *testing.T) {
	s := NewStore()
	s.SetActive(&model.Conversation{ID: 1})

	base := time.Unix(100, 0)
	assert.True(t, s.AppendMessage(msg(1, 1, base)))
	assert.True(t, s.AppendMessage(msg(2, 1, base.Add(time.Second))))
	assert.False(t, s.AppendMessage(msg(1, 1, base)), "duplicate id must be ignored")
	assert.True(t, s.AppendMessage(msg(3, 1, base.Add(2*time.Second))))

	got := s.Messages()
	require.Len(t, got, 3)
	// first-seen order, append at tail
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(3), got[2].ID)
}

func TestInstallHistoryCollapsesDuplicates(t *testing.T) {
	s := NewStore()
	base := time.Unix(100, 0)
	s.InstallHistory([]model.Message{msg(1, 1, base), msg(2, 1, base), msg(1, 1, base)})
	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestSetActiveResetsThreadAndTyping(t *testing.T) {
	s := NewStore()
	s.SetActive(&model.Conversation{ID: 1})
	s.AppendMessage(msg(1, 1, time.Unix(1, 0)))
	s.AddTyping("bob")

	s.SetActive(&model.Conversation{ID: 2})
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.TypingUsers())
	require.NotNil(t, s.Active())
	assert.Equal(t, int64(2), s.Active().ID)

	s.SetActive(nil)
	assert.Nil(t, s.Active())
	assert.Zero(t, s.ActiveID())
}

func TestSetStatusMonotonic(t *testing.T) {
	s := NewStore()
	s.AppendMessage(msg(1, 1, time.Unix(1, 0)))

	assert.True(t, s.SetStatus(1, model.StatusDelivered))
	assert.True(t, s.SetStatus(1, model.StatusRead))
	// downgrades are ignored
	assert.False(t, s.SetStatus(1, model.StatusDelivered))
	assert.False(t, s.SetStatus(1, model.StatusSent))
	assert.Equal(t, model.StatusRead, s.Messages()[0].Status)

	assert.False(t, s.SetStatus(999, model.StatusRead), "unknown id")
}

func TestClearMessagesKeepsTyping(t *testing.T) {
	s := NewStore()
	s.AppendMessage(msg(1, 1, time.Unix(1, 0)))
	s.AddTyping("bob")
	s.ClearMessages()
	assert.Empty(t, s.Messages())
	assert.Equal(t, []string{"bob"}, s.TypingUsers())
	// cleared thread accepts the same id again
	assert.True(t, s.AppendMessage(msg(1, 1, time.Unix(1, 0))))
}

func TestTypingSet(t *testing.T) {
	s := NewStore()
	assert.True(t, s.AddTyping("bob"))
	assert.False(t, s.AddTyping("bob"))
	assert.True(t, s.AddTyping("alice"))
	assert.Equal(t, []string{"alice", "bob"}, s.TypingUsers())
	s.RemoveTyping("bob")
	assert.Equal(t, []string{"alice"}, s.TypingUsers())
	s.RemoveTyping("nobody") // no-op
}

func TestLastMessage(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.LastMessage())
	s.AppendMessage(msg(1, 1, time.Unix(1, 0)))
	s.AppendMessage(msg(2, 1, time.Unix(2, 0)))
	require.NotNil(t, s.LastMessage())
	assert.Equal(t, int64(2), s.LastMessage().ID)
}
