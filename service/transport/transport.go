package transport

import "fmt"

// State of the logical connection. No automatic reconnect lives at
// this layer; reconnection policy belongs to the synchronizer.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// Handler receives the raw payload of one inbound event on a topic.
// Handlers run on the channel's read loop; events on one topic arrive
// in transport order.
type Handler func(payload []byte)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID    string
	Topic string
}

// Channel is one logical connection to the push endpoint.
//
// Contract notes, shared by all implementations:
//   - Connect is serialized; calling while connected is a no-op success.
//   - Subscribe returns nil (and logs) while disconnected; transient
//     disconnects during conversation switching are expected, so this
//     never panics.
//   - Publish is fire-and-forget; it warns and drops while disconnected.
//   - Unsubscribe and Disconnect are idempotent.
type Channel interface {
	Connect(token string) error
	Subscribe(topic string, h Handler) *Subscription
	Unsubscribe(topic string)
	Publish(topic string, payload []byte)
	Disconnect()
	State() State
	Connected() bool
	// OnDisconnect registers a callback fired once per unexpected
	// connection loss (never on explicit Disconnect).
	OnDisconnect(fn func(err error))
}

// Topic layout, mirroring the server's broker destinations.

func ConversationMessagesTopic(conversationID int64) string {
	return fmt.Sprintf("/topic/conversations/%d", conversationID)
}

func ConversationTypingTopic(conversationID int64) string {
	return fmt.Sprintf("/topic/conversations/%d/typing", conversationID)
}

func ConversationStatusTopic(conversationID int64) string {
	return fmt.Sprintf("/topic/conversations/%d/status", conversationID)
}

// OfflineQueueTopic is the per-user queue the server replays missed
// messages onto right after the handshake.
const OfflineQueueTopic = "/user/queue/offline-messages"

// StatusQueueTopic is the per-user queue for delivery-status changes
// of the user's own outbound messages.
const StatusQueueTopic = "/user/queue/message-status"

// Outbound application destinations.

func SendDestination(conversationID int64) string {
	return fmt.Sprintf("/app/conversations/%d/send", conversationID)
}

func TypingDestination(conversationID int64) string {
	return fmt.Sprintf("/app/conversations/%d/typing", conversationID)
}
