// internal/database/chat_repository.go
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

// ChatMessageDocument represents an embedded chat message
type ChatMessageDocument struct {
	ID        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ChatDocument represents a direct-message thread in MongoDB
type ChatDocument struct {
	ID           string                `bson:"_id"`
	Participants []string              `bson:"participants"`
	Messages     []ChatMessageDocument `bson:"messages"`
	CreatedAt    time.Time             `bson:"createdAt"`
	UpdatedAt    time.Time             `bson:"updatedAt"`
}

func chatToDocument(chat *models.Chat) *ChatDocument {
	doc := &ChatDocument{
		ID:           chat.ID.String(),
		Participants: make([]string, len(chat.Participants)),
		CreatedAt:    chat.CreatedAt,
		UpdatedAt:    chat.UpdatedAt,
	}
	for i, p := range chat.Participants {
		doc.Participants[i] = p.String()
	}
	for _, msg := range chat.Messages {
		doc.Messages = append(doc.Messages, ChatMessageDocument{
			ID:        msg.ID.String(),
			Sender:    msg.Sender.String(),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return doc
}

func chatDocumentToModel(doc *ChatDocument) (*models.Chat, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID in database: %v", err)
	}

	chat := &models.Chat{
		ID:           id,
		Participants: make([]uuid.UUID, len(doc.Participants)),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	for i, p := range doc.Participants {
		participant, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid participant ID in database: %v", err)
		}
		chat.Participants[i] = participant
	}
	for _, msg := range doc.Messages {
		msgID, err := uuid.Parse(msg.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid message ID in database: %v", err)
		}
		sender, err := uuid.Parse(msg.Sender)
		if err != nil {
			return nil, fmt.Errorf("invalid sender ID in database: %v", err)
		}
		chat.Messages = append(chat.Messages, models.ChatMessage{
			ID:        msgID,
			Sender:    sender,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return chat, nil
}

// SaveChat creates or updates a chat thread
func (m *MongoDB) SaveChat(ctx context.Context, chat *models.Chat) error {
	chat.UpdatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": chat.ID.String()}

	_, err := m.Chats.ReplaceOne(ctx, filter, chatToDocument(chat), opts)
	return err
}

// GetChat retrieves a chat thread by ID
func (m *MongoDB) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var doc ChatDocument
	err := m.Chats.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Chat not found", err)
	}
	if err != nil {
		return nil, err
	}
	return chatDocumentToModel(&doc)
}

// GetChatsForUser retrieves every chat a user participates in, most
// recently active first.
func (m *MongoDB) GetChatsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	cursor, err := m.Chats.Find(ctx,
		bson.M{"participants": userID.String()},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chats: %v", err)
	}
	defer cursor.Close(ctx)

	var chats []*models.Chat
	for cursor.Next(ctx) {
		var doc ChatDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode chat: %v", err)
		}
		chat, err := chatDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, cursor.Err()
}

// FindChatBetween returns the existing chat between two users, or a
// NOT_FOUND error when none exists yet.
func (m *MongoDB) FindChatBetween(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	var doc ChatDocument
	err := m.Chats.FindOne(ctx, bson.M{
		"participants": bson.M{"$all": []string{a.String(), b.String()}},
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Chat not found", err)
	}
	if err != nil {
		return nil, err
	}
	return chatDocumentToModel(&doc)
}
