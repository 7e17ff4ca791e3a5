package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing moderation statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusDenied    = "denied"
	StatusTakenDown = "taken-down"
)

// EditChanges is the sparse change set a submitter may propose against
// their listing. Only these fields can be edited after submission; nil
// pointers mean "leave untouched".
type EditChanges struct {
	Description *string  `json:"description,omitempty"`
	Logo        *string  `json:"logo,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Members     *int     `json:"members,omitempty"`
	Type        *string  `json:"type,omitempty"`
	NSFW        *bool    `json:"nsfw,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// IsEmpty reports whether no field of the change set is proposed.
func (c *EditChanges) IsEmpty() bool {
	return c.Description == nil && c.Logo == nil && c.Website == nil &&
		c.Language == nil && c.Members == nil && c.Type == nil &&
		c.NSFW == nil && len(c.Tags) == 0
}

// EditRequest is a proposed, moderator-reviewed change set embedded in
// its parent listing. Approving one merges the changes into the parent
// and removes it; denying removes it without effect.
type EditRequest struct {
	ID              uuid.UUID   `json:"id"`
	RequestedBy     uuid.UUID   `json:"requestedBy"`
	Changes         EditChanges `json:"changes"`
	Status          string      `json:"status"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Report is an informational flag raised by a user against a listing.
// Reports never change listing status automatically.
type Report struct {
	UserID    uuid.UUID `json:"userId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is a rating left by a user. Exactly one review per reviewer:
// a later review from the same user overwrites the earlier one.
type Review struct {
	UserID          uuid.UUID `json:"userId"`
	DiscordUsername string    `json:"discordUsername"`
	Rating          int       `json:"rating"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SubmitterDiscord is the submitter's display info denormalized onto
// the listing at submission time.
type SubmitterDiscord struct {
	Username string `json:"username"`
	UserID   string `json:"userID"`
	Tag      string `json:"tag,omitempty"`
}

// Listing is a submitted Discord server record subject to moderation.
type Listing struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Invite          string    `json:"invite"`
	Description     string    `json:"description"`
	Language        string    `json:"language,omitempty"`
	Members         int       `json:"members"`
	DiscordServerID string    `json:"discordServerId"`
	Type            string    `json:"type,omitempty"`
	Rules           string    `json:"rules,omitempty"`
	Website         string    `json:"website,omitempty"`
	NSFW            bool      `json:"nsfw"`
	Sponsored       bool      `json:"sponsored"`
	Tags            []string  `json:"tags"`
	Logo            string    `json:"logo"`

	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"` // set iff status == denied

	Submitter        uuid.UUID        `json:"submitter"`
	SubmitterDiscord SubmitterDiscord `json:"submitterDiscord"`

	Reports      []Report      `json:"reports,omitempty"`
	EditRequests []EditRequest `json:"editRequests,omitempty"`
	Reviews      []Review      `json:"reviews,omitempty"`

	// Revision is bumped on every write; concurrent writers that lose
	// the read-check-write race get a CONFLICT instead of a silent
	// stale merge.
	Revision int64 `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindEditRequest returns the index of the edit request with the given
// id, or -1 if none exists.
func (l *Listing) FindEditRequest(id uuid.UUID) int {
	for i := range l.EditRequests {
		if l.EditRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// ApplyChanges merges every proposed field of the change set into the
// listing. Shallow overwrite: tags replace wholesale, not merge.
func (l *Listing) ApplyChanges(c EditChanges) {
	if c.Description != nil {
		l.Description = *c.Description
	}
	if c.Logo != nil {
		l.Logo = *c.Logo
	}
	if c.Website != nil {
		l.Website = *c.Website
	}
	if c.Language != nil {
		l.Language = *c.Language
	}
	if c.Members != nil {
		l.Members = *c.Members
	}
	if c.Type != nil {
		l.Type = *c.Type
	}
	if c.NSFW != nil {
		l.NSFW = *c.NSFW
	}
	if len(c.Tags) > 0 {
		l.Tags = c.Tags
	}
}
