package model

// MessageType mirrors the server-side content type enum.
type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageFile  MessageType = "FILE"
)

// Status is the delivery status of a message. Transitions move forward
// only: SENT -> DELIVERED -> READ.
type Status string

const (
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

// Rank orders statuses for monotonicity checks; unknown statuses rank
// lowest so they never downgrade a known one.
func (s Status) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Message is a server-assigned chat message. The client never mints
// message ids; instances arrive via REST pages or live events.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID int64       `json:"conversationId"`
	Sender         User        `json:"sender"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	AttachmentURL  string      `json:"attachmentUrl,omitempty"`
	MimeType       string      `json:"mimeType,omitempty"`
	Status         Status      `json:"status"`
	CreatedAt      Timestamp   `json:"createdAt"`
	EditedAt       *Timestamp  `json:"editedAt,omitempty"`
	Deleted        bool        `json:"deleted,omitempty"`
}

// MessagePage is one page of history as returned by the server,
// newest-first. Callers reverse Content into ascending order before
// installing it.
type MessagePage struct {
	Content       []Message `json:"content"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	Last          bool      `json:"last"`
}

// SendMessageRequest is the outbound send intent. No provisional local
// message is created; the authoritative Message comes back on the
// conversation topic.
type SendMessageRequest struct {
	ConversationID int64       `json:"conversationId"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	AttachmentURL  string      `json:"attachmentUrl,omitempty"`
	MimeType       string      `json:"mimeType,omitempty"`
}
