package model

// ConversationType distinguishes one-on-one threads from groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// Conversation is a directory entry. UpdatedAt doubles as the
// last-activity timestamp the directory sorts on.
type Conversation struct {
	ID          int64            `json:"id"`
	Type        ConversationType `json:"type"`
	Name        string           `json:"name,omitempty"`
	CreatedAt   Timestamp        `json:"createdAt"`
	UpdatedAt   Timestamp        `json:"updatedAt"`
	Members     []User           `json:"members,omitempty"`
	LastMessage *Message         `json:"lastMessage,omitempty"`
	UnreadCount int64            `json:"unreadCount"`
}

// User is a chat participant as embedded in conversations and messages.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}
