package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	f := sendFrame("/app/conversations/7/send", []byte(`{"content":"hi"}`))
	parsed, err := ParseFrame(f.Encode())
	require.NoError(t, err)
	assert.Equal(t, FrameSend, parsed.Type)
	assert.Equal(t, "/app/conversations/7/send", parsed.Topic)
	assert.JSONEq(t, `{"content":"hi"}`, string(parsed.Payload))
}

func TestParseFrameRejectsBadInput(t *testing.T) {
	_, err := ParseFrame([]byte(`{{{`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{"topic":"x"}`))
	assert.Error(t, err, "frame without type")
}

func TestConnectFrameCarriesToken(t *testing.T) {
	f := connectFrame("c1", "tok")
	parsed, err := ParseFrame(f.Encode())
	require.NoError(t, err)
	assert.Equal(t, FrameConnect, parsed.Type)
	assert.Equal(t, "c1", parsed.ID)
	assert.Equal(t, "tok", parsed.Token)
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "/topic/conversations/7", ConversationMessagesTopic(7))
	assert.Equal(t, "/topic/conversations/7/typing", ConversationTypingTopic(7))
	assert.Equal(t, "/topic/conversations/7/status", ConversationStatusTopic(7))
	assert.Equal(t, "/app/conversations/7/send", SendDestination(7))
	assert.Equal(t, "/app/conversations/7/typing", TypingDestination(7))
}

func TestSubjectOf(t *testing.T) {
	assert.Equal(t, "topic.conversations.7.typing", SubjectOf(ConversationTypingTopic(7)))
	assert.Equal(t, "user.queue.offline-messages", SubjectOf(OfflineQueueTopic))
}
