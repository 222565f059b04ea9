package backend

import (
	"time"
)

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is a conversation thread owned by one user. Messages holds at most the
// single most recent message, used as the sidebar preview.
type Chat struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []MessagePreview `json:"messages"`
}

// Preview returns the most recent message of the chat, if any.
func (c Chat) Preview() (MessagePreview, bool) {
	if len(c.Messages) == 0 {
		return MessagePreview{}, false
	}
	return c.Messages[0], true
}

// MessagePreview is the truncated message shape carried by the chat list.
type MessagePreview struct {
	Content string `json:"content"`
	Role    Role   `json:"role"`
}

// Message is a single turn in a chat.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
}
