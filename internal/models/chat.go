package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single message embedded in a chat document.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Sender    uuid.UUID `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is a direct-message thread between exactly two users.
type Chat struct {
	ID           uuid.UUID     `json:"id"`
	Participants []uuid.UUID   `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// HasParticipant reports whether the user belongs to this chat.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// LastMessage returns the content of the most recent message, or "".
func (c *Chat) LastMessage() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}
