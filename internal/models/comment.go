package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDiscord is the commenter's display info captured at comment time.
type UserDiscord struct {
	Username string `json:"username"`
	Tag      string `json:"tag,omitempty"`
}

// Comment is a user remark on an approved listing. Comments are never
// edited; they are removed only when the parent listing is deleted.
type Comment struct {
	ID          uuid.UUID   `json:"id"`
	ListingID   uuid.UUID   `json:"listingId"`
	UserID      uuid.UUID   `json:"userId"`
	UserDiscord UserDiscord `json:"userDiscord"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"createdAt"`
}
