// internal/moderation/service.go
package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/google/uuid"
)

// ListingStore is the persistence surface the state machine drives.
// Implemented by database.MongoDB.
type ListingStore interface {
	InsertListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, status string) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing, expectedRevision int64) error
	UpdateMemberCount(ctx context.Context, discordServerID string, members int) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
}

// CommentStore covers the comment operations the listing lifecycle
// touches (posting and the delete cascade).
type CommentStore interface {
	InsertComment(ctx context.Context, c *models.Comment) error
	GetListingComments(ctx context.Context, listingID uuid.UUID) ([]*models.Comment, error)
	DeleteListingComments(ctx context.Context, listingID uuid.UUID) (int64, error)
}

// Events receives best-effort notifications on state transitions.
// Implemented by notify.Dispatcher; a nil Events disables alerts.
type Events interface {
	ListingSubmitted(l *models.Listing)
	StatusChanged(l *models.Listing, reason string)
	EditRequested(l *models.Listing, er *models.EditRequest)
	EditResolved(l *models.Listing, approved bool, reason string)
	ListingReported(l *models.Listing, reporter, reason string)
	ListingDeleted(name string, commentsRemoved int64)
}

// Service implements the listing moderation state machine:
//
//	pending -> approved | denied
//	approved -> taken-down
//
// denied and taken-down have no automatic transitions but remain
// moderator-editable through SetStatus.
type Service struct {
	listings ListingStore
	comments CommentStore
	events   Events
}

func NewService(listings ListingStore, comments CommentStore, events Events) *Service {
	return &Service{listings: listings, comments: comments, events: events}
}

// SubmitRequest carries the fields of a new listing submission.
type SubmitRequest struct {
	Name            string   `json:"name"`
	Invite          string   `json:"invite"`
	Description     string   `json:"description"`
	Language        string   `json:"language"`
	DiscordServerID string   `json:"discordServerId"`
	Type            string   `json:"type"`
	Rules           string   `json:"rules"`
	Website         string   `json:"website"`
	NSFW            bool     `json:"nsfw"`
	Tags            []string `json:"tags"`
	Logo            string   `json:"logo"`
}

// Submit creates a listing in pending with the submitter's display
// info denormalized onto it. Only verified users may submit.
func (s *Service) Submit(ctx context.Context, user *models.User, req SubmitRequest) (*models.Listing, error) {
	if !user.IsVerified {
		return nil, utils.NewAppError(utils.ErrUnverified, "Verify your email before submitting a server", nil)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Invite = strings.TrimSpace(req.Invite)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Invite == "" || req.Description == "" {
		return nil, utils.NewValidationError("name, invite and description are required")
	}
	if strings.TrimSpace(req.DiscordServerID) == "" {
		return nil, utils.NewValidationError("discordServerId is required")
	}
	if appErr := ValidateLogoURL(req.Logo); appErr != nil {
		return nil, appErr
	}

	now := time.Now()
	listing := &models.Listing{
		ID:              uuid.New(),
		Name:            req.Name,
		Invite:          req.Invite,
		Description:     req.Description,
		Language:        req.Language,
		DiscordServerID: strings.TrimSpace(req.DiscordServerID),
		Type:            req.Type,
		Rules:           req.Rules,
		Website:         req.Website,
		NSFW:            req.NSFW,
		Tags:            NormalizeTags(req.Tags),
		Logo:            req.Logo,
		Status:          models.StatusPending,
		Submitter:       user.ID,
		SubmitterDiscord: models.SubmitterDiscord{
			Username: user.DiscordUsername,
			UserID:   user.DiscordUserID,
			Tag:      user.DiscordTag,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.listings.InsertListing(ctx, listing); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.ListingSubmitted(listing)
	}
	return listing, nil
}

// RequestEdit appends a pending edit request to the caller's own
// listing. Multiple pending edit requests may coexist; each is
// resolved independently.
func (s *Service) RequestEdit(ctx context.Context, user *models.User, listingID uuid.UUID, changes models.EditChanges) (*models.EditRequest, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Submitter != user.ID {
		return nil, utils.NewForbiddenError("only the submitter may request edits")
	}

	filterChanges(&changes)
	if changes.Description == nil {
		return nil, utils.NewValidationError("description is required")
	}
	if changes.Logo == nil {
		return nil, utils.NewValidationError("logo is required")
	}
	if appErr := ValidateLogoURL(*changes.Logo); appErr != nil {
		return nil, appErr
	}
	if changes.Members != nil && !validMembers(*changes.Members) {
		return nil, utils.NewValidationError("members must be a non-negative number")
	}
	if len(changes.Tags) > 0 {
		changes.Tags = NormalizeTags(changes.Tags)
	}

	editRequest := models.EditRequest{
		ID:          uuid.New(),
		RequestedBy: user.ID,
		Changes:     changes,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	listing.EditRequests = append(listing.EditRequests, editRequest)

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.EditRequested(listing, &editRequest)
	}
	return &editRequest, nil
}

// ApproveEdit merges every proposed field of the edit request into the
// parent listing and removes the request.
func (s *Service) ApproveEdit(ctx context.Context, listingID, editRequestID uuid.UUID) (*models.Listing, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	idx := listing.FindEditRequest(editRequestID)
	if idx < 0 {
		return nil, utils.NewAppError(utils.ErrNotFound, "Edit request not found", nil)
	}

	listing.ApplyChanges(listing.EditRequests[idx].Changes)
	listing.EditRequests = append(listing.EditRequests[:idx], listing.EditRequests[idx+1:]...)

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.EditResolved(listing, true, "")
	}
	return listing, nil
}

// DenyEdit removes the edit request without touching the listing.
func (s *Service) DenyEdit(ctx context.Context, listingID, editRequestID uuid.UUID, reason string) (*models.Listing, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	idx := listing.FindEditRequest(editRequestID)
	if idx < 0 {
		return nil, utils.NewAppError(utils.ErrNotFound, "Edit request not found", nil)
	}

	listing.EditRequests = append(listing.EditRequests[:idx], listing.EditRequests[idx+1:]...)

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.EditResolved(listing, false, reason)
	}
	return listing, nil
}

// SetStatus moves a listing to the target status. A rejection reason
// is stored only while the listing is denied; any transition away from
// denied clears it.
func (s *Service) SetStatus(ctx context.Context, listingID uuid.UUID, status, reason string) (*models.Listing, error) {
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusDenied, models.StatusTakenDown:
	default:
		return nil, utils.NewValidationError("invalid status: " + status)
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	listing.Status = status
	if status == models.StatusDenied {
		listing.RejectionReason = reason
	} else {
		listing.RejectionReason = ""
	}

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.StatusChanged(listing, listing.RejectionReason)
	}
	return listing, nil
}

// Report appends an informational report to the listing. Status never
// changes automatically, whatever the report count.
func (s *Service) Report(ctx context.Context, user *models.User, listingID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return utils.NewValidationError("a reason is required")
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	listing.Reports = append(listing.Reports, models.Report{
		UserID:    user.ID,
		Reason:    reason,
		CreatedAt: time.Now(),
	})

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return err
	}

	if s.events != nil {
		s.events.ListingReported(listing, user.DiscordUsername, reason)
	}
	return nil
}

// Delete removes a listing and cascades to its comments.
func (s *Service) Delete(ctx context.Context, listingID uuid.UUID) error {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	removed, err := s.comments.DeleteListingComments(ctx, listingID)
	if err != nil {
		return err
	}
	if err := s.listings.DeleteListing(ctx, listingID); err != nil {
		return err
	}

	slog.Info("listing deleted", "listing", listingID, "comments_removed", removed)
	if s.events != nil {
		s.events.ListingDeleted(listing.Name, removed)
	}
	return nil
}

// UpdateMembers overwrites a listing's member count, keyed by the
// platform server reference id. Trusted bot path; no notification.
func (s *Service) UpdateMembers(ctx context.Context, discordServerID string, members int) error {
	if !validMembers(members) {
		return utils.NewValidationError("members must be a non-negative number")
	}
	return s.listings.UpdateMemberCount(ctx, discordServerID, members)
}

// SubmitReview stores or overwrites the caller's review of a listing.
// Reviews are keyed by the reviewer's stable user id; a second review
// from the same user replaces the first in place.
func (s *Service) SubmitReview(ctx context.Context, user *models.User, listingID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < minRating || rating > maxRating {
		return nil, utils.NewValidationError("rating must be an integer between 1 and 5")
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		UserID:          user.ID,
		DiscordUsername: user.DiscordUsername,
		Rating:          rating,
		Comment:         comment,
		CreatedAt:       time.Now(),
	}

	replaced := false
	for i := range listing.Reviews {
		if listing.Reviews[i].UserID == user.ID {
			listing.Reviews[i] = review
			replaced = true
			break
		}
	}
	if !replaced {
		listing.Reviews = append(listing.Reviews, review)
	}

	if err := s.listings.UpdateListing(ctx, listing, listing.Revision); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListReviews returns all reviews of a listing.
func (s *Service) ListReviews(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return listing.Reviews, nil
}

// PostComment attaches a comment to an approved listing.
func (s *Service) PostComment(ctx context.Context, user *models.User, listingID uuid.UUID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.NewValidationError("comment text is required")
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	// Non-approved listings are invisible to commenters
	if listing.Status != models.StatusApproved {
		return nil, utils.NewListingNotFoundError(listingID.String())
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		ListingID: listingID,
		UserID:    user.ID,
		UserDiscord: models.UserDiscord{
			Username: user.DiscordUsername,
			Tag:      user.DiscordTag,
		},
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := s.comments.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetListing returns a listing together with its comments.
func (s *Service) GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, []*models.Comment, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.GetListingComments(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	return listing, comments, nil
}

// ListListings returns listings filtered by status ("" means all).
func (s *Service) ListListings(ctx context.Context, status string) ([]*models.Listing, error) {
	return s.listings.ListListings(ctx, status)
}

// filterChanges drops empty-string proposals so they don't blank out
// listing fields on merge. Mirrors the allow-list: anything outside
// EditChanges never reaches this point because decoding discards it.
func filterChanges(c *models.EditChanges) {
	clearEmpty := func(v **string) {
		if *v != nil && strings.TrimSpace(**v) == "" {
			*v = nil
		}
	}
	clearEmpty(&c.Description)
	clearEmpty(&c.Logo)
	clearEmpty(&c.Website)
	clearEmpty(&c.Language)
	clearEmpty(&c.Type)

	if len(c.Tags) > 0 {
		kept := c.Tags[:0]
		for _, t := range c.Tags {
			if strings.TrimSpace(t) != "" {
				kept = append(kept, t)
			}
		}
		c.Tags = kept
	}
}
