// internal/database/comment_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"opslink/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents comment data in MongoDB
type CommentDocument struct {
	ID          string `bson:"_id"`
	ListingID   string `bson:"listingId"`
	UserID      string `bson:"userId"`
	UserDiscord struct {
		Username string `bson:"username"`
		Tag      string `bson:"tag,omitempty"`
	} `bson:"userDiscord"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

// InsertComment stores a new comment. Comments are immutable once posted.
func (m *MongoDB) InsertComment(ctx context.Context, comment *models.Comment) error {
	doc := CommentDocument{
		ID:        comment.ID.String(),
		ListingID: comment.ListingID.String(),
		UserID:    comment.UserID.String(),
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
	doc.UserDiscord.Username = comment.UserDiscord.Username
	doc.UserDiscord.Tag = comment.UserDiscord.Tag

	_, err := m.Comments.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %v", err)
	}
	return nil
}

// GetListingComments retrieves all comments for a listing, newest first
func (m *MongoDB) GetListingComments(ctx context.Context, listingID uuid.UUID) ([]*models.Comment, error) {
	cursor, err := m.Comments.Find(ctx,
		bson.M{"listingId": listingID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing comments: %v", err)
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %v", err)
		}

		comment, err := commentDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, cursor.Err()
}

// DeleteListingComments removes every comment attached to a listing.
// Called as part of the listing delete cascade.
func (m *MongoDB) DeleteListingComments(ctx context.Context, listingID uuid.UUID) (int64, error) {
	result, err := m.Comments.DeleteMany(ctx, bson.M{"listingId": listingID.String()})
	if err != nil {
		return 0, fmt.Errorf("failed to delete listing comments: %v", err)
	}
	return result.DeletedCount, nil
}

func commentDocumentToModel(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}
	listingID, err := uuid.Parse(doc.ListingID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing ID: %v", err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}

	return &models.Comment{
		ID:        id,
		ListingID: listingID,
		UserID:    userID,
		UserDiscord: models.UserDiscord{
			Username: doc.UserDiscord.Username,
			Tag:      doc.UserDiscord.Tag,
		},
		Text:      doc.Text,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// EnsureCommentIndexes creates required indexes for the comments collection
func (m *MongoDB) EnsureCommentIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "listingId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	}

	_, err := m.Comments.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create comment indexes: %v", err)
	}
	return nil
}
