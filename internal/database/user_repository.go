// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SocialLinkDocument represents a connected external account in MongoDB
type SocialLinkDocument struct {
	Connected    bool   `bson:"connected"`
	Username     string `bson:"username,omitempty"`
	ProfileURL   string `bson:"profileUrl,omitempty"`
	AccessToken  string `bson:"accessToken,omitempty"`
	RefreshToken string `bson:"refreshToken,omitempty"`
}

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string `bson:"_id"`
	Email          string `bson:"email"`
	HashedPassword string `bson:"hashedPassword"`

	DiscordUsername string `bson:"discordUsername"`
	DiscordTag      string `bson:"discordTag,omitempty"`
	DiscordUserID   string `bson:"discordUserID"`
	DiscordAvatar   string `bson:"discordAvatar,omitempty"`

	Role      string `bson:"role"`
	IsPremium bool   `bson:"isPremium"`

	IsVerified               bool      `bson:"isVerified"`
	EmailVerificationToken   string    `bson:"emailVerificationToken,omitempty"`
	EmailVerificationExpires time.Time `bson:"emailVerificationExpires,omitempty"`

	PasswordResetToken   string    `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires time.Time `bson:"passwordResetExpires,omitempty"`

	TokenVersion int `bson:"tokenVersion"`

	Socials map[string]SocialLinkDocument `bson:"socials,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func userToDocument(user *models.User) *UserDocument {
	doc := &UserDocument{
		ID:                       user.ID.String(),
		Email:                    user.Email,
		HashedPassword:           user.HashedPassword,
		DiscordUsername:          user.DiscordUsername,
		DiscordTag:               user.DiscordTag,
		DiscordUserID:            user.DiscordUserID,
		DiscordAvatar:            user.DiscordAvatar,
		Role:                     user.Role,
		IsPremium:                user.IsPremium,
		IsVerified:               user.IsVerified,
		EmailVerificationToken:   user.EmailVerificationToken,
		EmailVerificationExpires: user.EmailVerificationExpires,
		PasswordResetToken:       user.PasswordResetToken,
		PasswordResetExpires:     user.PasswordResetExpires,
		TokenVersion:             user.TokenVersion,
		CreatedAt:                user.CreatedAt,
		UpdatedAt:                user.UpdatedAt,
	}

	if len(user.Socials) > 0 {
		doc.Socials = make(map[string]SocialLinkDocument, len(user.Socials))
		for platform, link := range user.Socials {
			doc.Socials[platform] = SocialLinkDocument(link)
		}
	}
	return doc
}

func userDocumentToModel(doc *UserDocument) (*models.User, error) {
	userID, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}

	user := &models.User{
		ID:                       userID,
		Email:                    doc.Email,
		HashedPassword:           doc.HashedPassword,
		DiscordUsername:          doc.DiscordUsername,
		DiscordTag:               doc.DiscordTag,
		DiscordUserID:            doc.DiscordUserID,
		DiscordAvatar:            doc.DiscordAvatar,
		Role:                     doc.Role,
		IsPremium:                doc.IsPremium,
		IsVerified:               doc.IsVerified,
		EmailVerificationToken:   doc.EmailVerificationToken,
		EmailVerificationExpires: doc.EmailVerificationExpires,
		PasswordResetToken:       doc.PasswordResetToken,
		PasswordResetExpires:     doc.PasswordResetExpires,
		TokenVersion:             doc.TokenVersion,
		CreatedAt:                doc.CreatedAt,
		UpdatedAt:                doc.UpdatedAt,
	}

	if len(doc.Socials) > 0 {
		user.Socials = make(map[string]models.SocialLink, len(doc.Socials))
		for platform, link := range doc.Socials {
			user.Socials[platform] = models.SocialLink(link)
		}
	}
	return user, nil
}

// SaveUser creates or updates a user in MongoDB
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	doc := userToDocument(user)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}

	_, err := m.Users.ReplaceOne(ctx, filter, doc, opts)
	return err
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail retrieves a user by email. Matching is case-sensitive.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

// GetUserByDiscordUsername retrieves a user by their Discord username
func (m *MongoDB) GetUserByDiscordUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"discordUsername": username})
}

// GetUserByDiscordID retrieves a user by their Discord user ID
func (m *MongoDB) GetUserByDiscordID(ctx context.Context, discordUserID string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"discordUserID": discordUserID})
}

// GetUserByVerificationToken retrieves a user holding an unexpired
// email verification token.
func (m *MongoDB) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return m.findUser(ctx, bson.M{
		"emailVerificationToken":   token,
		"emailVerificationExpires": bson.M{"$gt": time.Now()},
	})
}

// GetUserByResetToken retrieves a user holding an unexpired password
// reset token.
func (m *MongoDB) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.findUser(ctx, bson.M{
		"passwordResetToken":   token,
		"passwordResetExpires": bson.M{"$gt": time.Now()},
	})
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}
	return userDocumentToModel(&doc)
}

// discordUsernameFilter builds a case-insensitive substring match.
// The query is user input, so regex metacharacters are escaped before
// it reaches $regex.
func discordUsernameFilter(query string) bson.M {
	return bson.M{"discordUsername": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
}

// SearchUsersByDiscordUsername performs a case-insensitive substring
// search, capped at limit results.
func (m *MongoDB) SearchUsersByDiscordUsername(ctx context.Context, query string, limit int64) ([]*models.User, error) {
	filter := discordUsernameFilter(query)
	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{"_id": 1, "discordUsername": 1, "role": 1})

	cursor, err := m.Users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		user, err := userDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

// EnsureUserIndexes creates the unique indexes the signup checks rely on
func (m *MongoDB) EnsureUserIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "discordUsername", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "discordUserID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.Users.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}
	return nil
}
