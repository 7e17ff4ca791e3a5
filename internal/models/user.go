package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold. Moderation endpoints are gated on these.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleManagement = "management"
)

// SocialLink holds a connected external account (OAuth-linked).
type SocialLink struct {
	Connected    bool   `json:"connected"`
	Username     string `json:"username,omitempty"`
	ProfileURL   string `json:"profileUrl,omitempty"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`

	DiscordUsername string `json:"discordUsername"`
	DiscordTag      string `json:"discordTag,omitempty"`
	DiscordUserID   string `json:"discordUserID"`
	DiscordAvatar   string `json:"discordAvatar,omitempty"`

	Role      string `json:"role"`
	IsPremium bool   `json:"isPremium"`

	// Email verification. Token and expiry are set and cleared together.
	IsVerified               bool      `json:"isVerified"`
	EmailVerificationToken   string    `json:"-"`
	EmailVerificationExpires time.Time `json:"-"`

	// Password reset. Token and expiry are set and cleared together.
	PasswordResetToken   string    `json:"-"`
	PasswordResetExpires time.Time `json:"-"`

	// TokenVersion is the session epoch. Incrementing it invalidates
	// every credential issued before the increment.
	TokenVersion int `json:"-"`

	// Connected socials keyed by provider name (twitch, spotify, github, ...).
	Socials map[string]SocialLink `json:"socials,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsModerator reports whether the user holds a moderation-capable role.
func (u *User) IsModerator() bool {
	return u.Role == RoleAdmin || u.Role == RoleManagement
}

// Public returns a copy stripped of credential material, safe for
// handing to downstream authorization checks and API responses.
func (u *User) Public() *User {
	pub := *u
	pub.HashedPassword = ""
	pub.EmailVerificationToken = ""
	pub.PasswordResetToken = ""
	pub.Socials = nil
	return &pub
}
