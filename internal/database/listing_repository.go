// internal/database/listing_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EditChangesDocument is the sparse change set stored inside an edit request
type EditChangesDocument struct {
	Description *string  `bson:"description,omitempty"`
	Logo        *string  `bson:"logo,omitempty"`
	Website     *string  `bson:"website,omitempty"`
	Language    *string  `bson:"language,omitempty"`
	Members     *int     `bson:"members,omitempty"`
	Type        *string  `bson:"type,omitempty"`
	NSFW        *bool    `bson:"nsfw,omitempty"`
	Tags        []string `bson:"tags,omitempty"`
}

// EditRequestDocument represents an embedded edit request
type EditRequestDocument struct {
	ID              string              `bson:"_id"`
	RequestedBy     string              `bson:"requestedBy"`
	Changes         EditChangesDocument `bson:"changes"`
	Status          string              `bson:"status"`
	RejectionReason string              `bson:"rejectionReason,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt"`
}

// ReportDocument represents an embedded report
type ReportDocument struct {
	UserID    string    `bson:"user"`
	Reason    string    `bson:"reason"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ReviewDocument represents an embedded review
type ReviewDocument struct {
	UserID          string    `bson:"user"`
	DiscordUsername string    `bson:"discordUsername"`
	Rating          int       `bson:"rating"`
	Comment         string    `bson:"comment,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
}

// ListingDocument represents the MongoDB schema for a listing
type ListingDocument struct {
	ID              string   `bson:"_id"`
	Name            string   `bson:"name"`
	Invite          string   `bson:"invite"`
	Description     string   `bson:"description"`
	Language        string   `bson:"language,omitempty"`
	Members         int      `bson:"members"`
	DiscordServerID string   `bson:"discordServerId"`
	Type            string   `bson:"type,omitempty"`
	Rules           string   `bson:"rules,omitempty"`
	Website         string   `bson:"website,omitempty"`
	NSFW            bool     `bson:"nsfw"`
	Sponsored       bool     `bson:"sponsored"`
	Tags            []string `bson:"tags"`
	Logo            string   `bson:"logo"`

	Status          string `bson:"status"`
	RejectionReason string `bson:"rejectionReason,omitempty"`

	Submitter        string `bson:"submitter"`
	SubmitterDiscord struct {
		Username string `bson:"username"`
		UserID   string `bson:"userID"`
		Tag      string `bson:"tag,omitempty"`
	} `bson:"submitterDiscord"`

	Reports      []ReportDocument      `bson:"reports,omitempty"`
	EditRequests []EditRequestDocument `bson:"editRequests,omitempty"`
	Reviews      []ReviewDocument      `bson:"reviews,omitempty"`

	Revision int64 `bson:"revision"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func listingToDocument(l *models.Listing) *ListingDocument {
	doc := &ListingDocument{
		ID:              l.ID.String(),
		Name:            l.Name,
		Invite:          l.Invite,
		Description:     l.Description,
		Language:        l.Language,
		Members:         l.Members,
		DiscordServerID: l.DiscordServerID,
		Type:            l.Type,
		Rules:           l.Rules,
		Website:         l.Website,
		NSFW:            l.NSFW,
		Sponsored:       l.Sponsored,
		Tags:            l.Tags,
		Logo:            l.Logo,
		Status:          l.Status,
		RejectionReason: l.RejectionReason,
		Submitter:       l.Submitter.String(),
		Revision:        l.Revision,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	doc.SubmitterDiscord.Username = l.SubmitterDiscord.Username
	doc.SubmitterDiscord.UserID = l.SubmitterDiscord.UserID
	doc.SubmitterDiscord.Tag = l.SubmitterDiscord.Tag

	for _, r := range l.Reports {
		doc.Reports = append(doc.Reports, ReportDocument{
			UserID:    r.UserID.String(),
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, er := range l.EditRequests {
		doc.EditRequests = append(doc.EditRequests, EditRequestDocument{
			ID:              er.ID.String(),
			RequestedBy:     er.RequestedBy.String(),
			Changes:         EditChangesDocument(er.Changes),
			Status:          er.Status,
			RejectionReason: er.RejectionReason,
			CreatedAt:       er.CreatedAt,
		})
	}
	for _, rv := range l.Reviews {
		doc.Reviews = append(doc.Reviews, ReviewDocument{
			UserID:          rv.UserID.String(),
			DiscordUsername: rv.DiscordUsername,
			Rating:          rv.Rating,
			Comment:         rv.Comment,
			CreatedAt:       rv.CreatedAt,
		})
	}
	return doc
}

func listingDocumentToModel(doc *ListingDocument) (*models.Listing, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing ID in database: %v", err)
	}
	submitter, err := uuid.Parse(doc.Submitter)
	if err != nil {
		return nil, fmt.Errorf("invalid submitter ID in database: %v", err)
	}

	l := &models.Listing{
		ID:              id,
		Name:            doc.Name,
		Invite:          doc.Invite,
		Description:     doc.Description,
		Language:        doc.Language,
		Members:         doc.Members,
		DiscordServerID: doc.DiscordServerID,
		Type:            doc.Type,
		Rules:           doc.Rules,
		Website:         doc.Website,
		NSFW:            doc.NSFW,
		Sponsored:       doc.Sponsored,
		Tags:            doc.Tags,
		Logo:            doc.Logo,
		Status:          doc.Status,
		RejectionReason: doc.RejectionReason,
		Submitter:       submitter,
		SubmitterDiscord: models.SubmitterDiscord{
			Username: doc.SubmitterDiscord.Username,
			UserID:   doc.SubmitterDiscord.UserID,
			Tag:      doc.SubmitterDiscord.Tag,
		},
		Revision:  doc.Revision,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	for _, r := range doc.Reports {
		userID, err := uuid.Parse(r.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid report user ID in database: %v", err)
		}
		l.Reports = append(l.Reports, models.Report{
			UserID:    userID,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, er := range doc.EditRequests {
		erID, err := uuid.Parse(er.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid edit request ID in database: %v", err)
		}
		requestedBy, err := uuid.Parse(er.RequestedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid edit request user ID in database: %v", err)
		}
		l.EditRequests = append(l.EditRequests, models.EditRequest{
			ID:              erID,
			RequestedBy:     requestedBy,
			Changes:         models.EditChanges(er.Changes),
			Status:          er.Status,
			RejectionReason: er.RejectionReason,
			CreatedAt:       er.CreatedAt,
		})
	}
	for _, rv := range doc.Reviews {
		userID, err := uuid.Parse(rv.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid review user ID in database: %v", err)
		}
		l.Reviews = append(l.Reviews, models.Review{
			UserID:          userID,
			DiscordUsername: rv.DiscordUsername,
			Rating:          rv.Rating,
			Comment:         rv.Comment,
			CreatedAt:       rv.CreatedAt,
		})
	}
	return l, nil
}

// InsertListing stores a newly submitted listing
func (m *MongoDB) InsertListing(ctx context.Context, l *models.Listing) error {
	_, err := m.Listings.InsertOne(ctx, listingToDocument(l))
	if err != nil {
		return fmt.Errorf("failed to insert listing: %v", err)
	}
	return nil
}

// GetListing retrieves a listing by ID
func (m *MongoDB) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return m.findListing(ctx, bson.M{"_id": id.String()})
}

func (m *MongoDB) findListing(ctx context.Context, filter bson.M) (*models.Listing, error) {
	var doc ListingDocument
	err := m.Listings.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrListingNotFound, "Listing not found", err)
	}
	if err != nil {
		return nil, err
	}
	return listingDocumentToModel(&doc)
}

// ListListings returns listings filtered by status; an empty status
// returns every listing regardless of state.
func (m *MongoDB) ListListings(ctx context.Context, status string) ([]*models.Listing, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := m.Listings.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %v", err)
	}
	defer cursor.Close(ctx)

	var listings []*models.Listing
	for cursor.Next(ctx) {
		var doc ListingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %v", err)
		}
		l, err := listingDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, cursor.Err()
}

// UpdateListing replaces the stored document if and only if its
// revision still matches expectedRevision. A concurrent writer that
// got there first causes a CONFLICT instead of a silent stale merge.
func (m *MongoDB) UpdateListing(ctx context.Context, l *models.Listing, expectedRevision int64) error {
	l.Revision = expectedRevision + 1
	l.UpdatedAt = time.Now()

	filter := bson.M{"_id": l.ID.String(), "revision": expectedRevision}
	result, err := m.Listings.ReplaceOne(ctx, filter, listingToDocument(l))
	if err != nil {
		l.Revision = expectedRevision
		return fmt.Errorf("failed to update listing: %v", err)
	}

	if result.MatchedCount == 0 {
		l.Revision = expectedRevision
		// Distinguish a vanished listing from a lost race
		count, err := m.Listings.CountDocuments(ctx, bson.M{"_id": l.ID.String()})
		if err != nil {
			return fmt.Errorf("failed to update listing: %v", err)
		}
		if count == 0 {
			return utils.NewListingNotFoundError(l.ID.String())
		}
		return utils.NewConflictError("listing was modified concurrently, retry")
	}
	return nil
}

// UpdateMemberCount overwrites the member count for the listing with
// the given platform reference id.
func (m *MongoDB) UpdateMemberCount(ctx context.Context, discordServerID string, members int) error {
	filter := bson.M{"discordServerId": discordServerID}
	update := bson.M{
		"$set": bson.M{"members": members, "updatedAt": time.Now()},
		"$inc": bson.M{"revision": 1},
	}

	result, err := m.Listings.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update member count: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrListingNotFound, "Listing not found: "+discordServerID, nil)
	}
	return nil
}

// DeleteListing removes a listing document
func (m *MongoDB) DeleteListing(ctx context.Context, id uuid.UUID) error {
	result, err := m.Listings.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %v", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewListingNotFoundError(id.String())
	}
	return nil
}

// EnsureListingIndexes creates required indexes for the listings collection
func (m *MongoDB) EnsureListingIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "discordServerId", Value: 1}}},
		{Keys: bson.D{{Key: "submitter", Value: 1}}},
		{Keys: bson.D{{Key: "editRequests.status", Value: 1}}},
	}

	_, err := m.Listings.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create listing indexes: %v", err)
	}
	return nil
}
