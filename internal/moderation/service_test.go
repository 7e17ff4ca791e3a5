package moderation

import (
	"context"
	"testing"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListingStore keeps listings in memory and enforces the same
// revision check as the Mongo repository.
type fakeListingStore struct {
	listings map[uuid.UUID]*models.Listing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: make(map[uuid.UUID]*models.Listing)}
}

func (f *fakeListingStore) InsertListing(_ context.Context, l *models.Listing) error {
	cp := *l
	f.listings[l.ID] = &cp
	return nil
}

func (f *fakeListingStore) GetListing(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, utils.NewListingNotFoundError(id.String())
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListingStore) ListListings(_ context.Context, status string) ([]*models.Listing, error) {
	var out []*models.Listing
	for _, l := range f.listings {
		if status == "" || l.Status == status {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeListingStore) UpdateListing(_ context.Context, l *models.Listing, expectedRevision int64) error {
	stored, ok := f.listings[l.ID]
	if !ok {
		return utils.NewListingNotFoundError(l.ID.String())
	}
	if stored.Revision != expectedRevision {
		return utils.NewConflictError("listing was modified concurrently, retry")
	}
	cp := *l
	cp.Revision = expectedRevision + 1
	f.listings[l.ID] = &cp
	l.Revision = cp.Revision
	return nil
}

func (f *fakeListingStore) UpdateMemberCount(_ context.Context, discordServerID string, members int) error {
	for _, l := range f.listings {
		if l.DiscordServerID == discordServerID {
			l.Members = members
			l.Revision++
			return nil
		}
	}
	return utils.NewAppError(utils.ErrListingNotFound, "Listing not found", nil)
}

func (f *fakeListingStore) DeleteListing(_ context.Context, id uuid.UUID) error {
	if _, ok := f.listings[id]; !ok {
		return utils.NewListingNotFoundError(id.String())
	}
	delete(f.listings, id)
	return nil
}

type fakeCommentStore struct {
	comments map[uuid.UUID][]*models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[uuid.UUID][]*models.Comment)}
}

func (f *fakeCommentStore) InsertComment(_ context.Context, c *models.Comment) error {
	f.comments[c.ListingID] = append(f.comments[c.ListingID], c)
	return nil
}

func (f *fakeCommentStore) GetListingComments(_ context.Context, listingID uuid.UUID) ([]*models.Comment, error) {
	return f.comments[listingID], nil
}

func (f *fakeCommentStore) DeleteListingComments(_ context.Context, listingID uuid.UUID) (int64, error) {
	n := int64(len(f.comments[listingID]))
	delete(f.comments, listingID)
	return n, nil
}

func newTestService() (*Service, *fakeListingStore, *fakeCommentStore) {
	listings := newFakeListingStore()
	comments := newFakeCommentStore()
	return NewService(listings, comments, nil), listings, comments
}

func verifiedUser() *models.User {
	return &models.User{
		ID:              uuid.New(),
		Email:           "gator@example.com",
		DiscordUsername: "gator",
		DiscordUserID:   "123456789",
		Role:            models.RoleUser,
		IsVerified:      true,
	}
}

func submitListing(t *testing.T, svc *Service, user *models.User) *models.Listing {
	t.Helper()
	listing, err := svc.Submit(context.Background(), user, SubmitRequest{
		Name:            "Gator Swamp",
		Invite:          "https://discord.gg/gators",
		Description:     "A swamp for gators",
		DiscordServerID: "111222333",
		Logo:            "https://cdn.example.com/logo.png",
		Tags:            []string{"Gaming", "chill"},
	})
	require.NoError(t, err)
	return listing
}

func TestSubmitCreatesPendingListing(t *testing.T) {
	svc, store, _ := newTestService()
	user := verifiedUser()

	listing := submitListing(t, svc, user)

	assert.Equal(t, models.StatusPending, listing.Status)
	assert.Equal(t, user.ID, listing.Submitter)
	assert.Equal(t, "gator", listing.SubmitterDiscord.Username)
	assert.Equal(t, []string{"gaming", "chill"}, listing.Tags)

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSubmitRejectsUnverifiedUser(t *testing.T) {
	svc, _, _ := newTestService()
	user := verifiedUser()
	user.IsVerified = false

	_, err := svc.Submit(context.Background(), user, SubmitRequest{
		Name:            "Gator Swamp",
		Invite:          "https://discord.gg/gators",
		Description:     "A swamp for gators",
		DiscordServerID: "111222333",
		Logo:            "https://cdn.example.com/logo.png",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnverified))
}

func TestSubmitRequiresDiscordServerID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), verifiedUser(), SubmitRequest{
		Name:        "Gator Swamp",
		Invite:      "https://discord.gg/gators",
		Description: "A swamp for gators",
		Logo:        "https://cdn.example.com/logo.png",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestRequestEditRejectsNonOwner(t *testing.T) {
	svc, _, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	stranger := verifiedUser()
	desc := "New description"
	logo := "https://cdn.example.com/new.png"
	_, err := svc.RequestEdit(context.Background(), stranger, listing.ID, models.EditChanges{
		Description: &desc,
		Logo:        &logo,
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
}

func TestApproveEditMergesExactlyProposedFields(t *testing.T) {
	svc, store, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	desc := "Updated description"
	logo := "https://cdn.example.com/new.gif"
	website := "https://gators.example.com"
	er, err := svc.RequestEdit(context.Background(), owner, listing.ID, models.EditChanges{
		Description: &desc,
		Logo:        &logo,
		Website:     &website,
	})
	require.NoError(t, err)

	updated, err := svc.ApproveEdit(context.Background(), listing.ID, er.ID)
	require.NoError(t, err)

	assert.Equal(t, "Updated description", updated.Description)
	assert.Equal(t, "https://cdn.example.com/new.gif", updated.Logo)
	assert.Equal(t, "https://gators.example.com", updated.Website)
	// Untouched fields survive the merge
	assert.Equal(t, "Gator Swamp", updated.Name)
	assert.Equal(t, "https://discord.gg/gators", updated.Invite)
	assert.Equal(t, []string{"gaming", "chill"}, updated.Tags)
	// The resolved request is removed from the listing
	assert.Empty(t, updated.EditRequests)

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated description", stored.Description)
}

func TestDenyEditLeavesListingUntouched(t *testing.T) {
	svc, _, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	desc := "Spammy description"
	logo := "https://cdn.example.com/spam.png"
	er, err := svc.RequestEdit(context.Background(), owner, listing.ID, models.EditChanges{
		Description: &desc,
		Logo:        &logo,
	})
	require.NoError(t, err)

	updated, err := svc.DenyEdit(context.Background(), listing.ID, er.ID, "low effort")
	require.NoError(t, err)

	assert.Equal(t, "A swamp for gators", updated.Description)
	assert.Equal(t, "https://cdn.example.com/logo.png", updated.Logo)
	assert.Empty(t, updated.EditRequests)
}

func TestResolveMissingEditRequest(t *testing.T) {
	svc, _, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	_, err := svc.ApproveEdit(context.Background(), listing.ID, uuid.New())
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	_, err = svc.DenyEdit(context.Background(), listing.ID, uuid.New(), "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestSetStatusStoresReasonOnlyWhileDenied(t *testing.T) {
	svc, _, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	denied, err := svc.SetStatus(context.Background(), listing.ID, models.StatusDenied, "broken invite")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDenied, denied.Status)
	assert.Equal(t, "broken invite", denied.RejectionReason)

	approved, err := svc.SetStatus(context.Background(), listing.ID, models.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Empty(t, approved.RejectionReason)

	taken, err := svc.SetStatus(context.Background(), listing.ID, models.StatusTakenDown, "ignored")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTakenDown, taken.Status)
	assert.Empty(t, taken.RejectionReason)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	_, err := svc.SetStatus(context.Background(), listing.ID, "archived", "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestReportNeverChangesStatus(t *testing.T) {
	svc, store, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	_, err := svc.SetStatus(context.Background(), listing.ID, models.StatusApproved, "")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		reporter := verifiedUser()
		require.NoError(t, svc.Report(context.Background(), reporter, listing.ID, "spam"))
	}

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Len(t, stored.Reports, 10)
}

func TestDeleteCascadesToComments(t *testing.T) {
	svc, store, comments := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	_, err := svc.SetStatus(context.Background(), listing.ID, models.StatusApproved, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.PostComment(context.Background(), owner, listing.ID, "nice server")
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(context.Background(), listing.ID))

	_, err = store.GetListing(context.Background(), listing.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrListingNotFound))

	remaining, err := comments.GetListingComments(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPostCommentOnlyOnApprovedListings(t *testing.T) {
	svc, _, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	// Still pending
	_, err := svc.PostComment(context.Background(), owner, listing.ID, "first!")
	assert.True(t, utils.IsErrorCode(err, utils.ErrListingNotFound))

	_, err = svc.SetStatus(context.Background(), listing.ID, models.StatusApproved, "")
	require.NoError(t, err)

	comment, err := svc.PostComment(context.Background(), owner, listing.ID, "first!")
	require.NoError(t, err)
	assert.Equal(t, "first!", comment.Text)
	assert.Equal(t, "gator", comment.UserDiscord.Username)
}

func TestSubmitReviewOverwritesInPlace(t *testing.T) {
	svc, _, _ := newTestService()
	reviewer := verifiedUser()
	listing := submitListing(t, svc, verifiedUser())

	_, err := svc.SubmitReview(context.Background(), reviewer, listing.ID, 3, "decent")
	require.NoError(t, err)

	_, err = svc.SubmitReview(context.Background(), reviewer, listing.ID, 5, "grew on me")
	require.NoError(t, err)

	reviews, err := svc.ListReviews(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, "grew on me", reviews[0].Comment)
	assert.Equal(t, reviewer.ID, reviews[0].UserID)
}

func TestSubmitReviewRejectsOutOfRangeRating(t *testing.T) {
	svc, _, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.SubmitReview(context.Background(), verifiedUser(), listing.ID, rating, "")
		assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput), "rating %d should be rejected", rating)
	}
}

func TestUpdateMembers(t *testing.T) {
	svc, store, _ := newTestService()
	listing := submitListing(t, svc, verifiedUser())

	require.NoError(t, svc.UpdateMembers(context.Background(), listing.DiscordServerID, 4200))

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4200, stored.Members)

	err = svc.UpdateMembers(context.Background(), listing.DiscordServerID, -1)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	err = svc.UpdateMembers(context.Background(), "999999", 10)
	assert.True(t, utils.IsErrorCode(err, utils.ErrListingNotFound))
}

func TestConcurrentEditConflict(t *testing.T) {
	svc, store, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	// Simulate a concurrent writer bumping the revision between the
	// service's read and write.
	stale, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	stored := store.listings[listing.ID]
	stored.Revision++

	err = store.UpdateListing(context.Background(), stale, stale.Revision)
	assert.True(t, utils.IsErrorCode(err, utils.ErrConflict))
}

func TestEditRequestTimestamps(t *testing.T) {
	svc, _, _ := newTestService()
	owner := verifiedUser()
	listing := submitListing(t, svc, owner)

	desc := "New description"
	logo := "https://cdn.example.com/new.png"
	before := time.Now()
	er, err := svc.RequestEdit(context.Background(), owner, listing.ID, models.EditChanges{
		Description: &desc,
		Logo:        &logo,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, er.Status)
	assert.False(t, er.CreatedAt.Before(before))
}
