// internal/database/snapshot_repository.go
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

// SnapshotDocument represents an analytics sample in MongoDB
type SnapshotDocument struct {
	ID              string `bson:"_id"`
	DiscordServerID string `bson:"serverId"`
	ServerName      string `bson:"serverName,omitempty"`

	Members  int `bson:"members"`
	Messages int `bson:"messages"`
	Voice    int `bson:"voice"`
	Joins    int `bson:"joins"`

	TextChannelsCount  int `bson:"textChannelsCount"`
	VoiceChannelsCount int `bson:"voiceChannelsCount"`
	RolesCount         int `bson:"rolesCount"`
	EmojisCount        int `bson:"emojisCount"`
	Boosts             int `bson:"boosts"`
	AFKMembers         int `bson:"afkMembers"`

	TopChannels []models.TopChannel `bson:"topChannels,omitempty"`
	TopMembers  []models.TopMember  `bson:"topMembers,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
}

func snapshotToDocument(s *models.Snapshot) *SnapshotDocument {
	return &SnapshotDocument{
		ID:                 s.ID.String(),
		DiscordServerID:    s.DiscordServerID,
		ServerName:         s.ServerName,
		Members:            s.Members.Current,
		Messages:           s.Messages.Current,
		Voice:              s.Voice.Current,
		Joins:              s.Joins.Current,
		TextChannelsCount:  s.TextChannelsCount,
		VoiceChannelsCount: s.VoiceChannelsCount,
		RolesCount:         s.RolesCount,
		EmojisCount:        s.EmojisCount,
		Boosts:             s.Boosts,
		AFKMembers:         s.AFKMembers,
		TopChannels:        s.TopChannels,
		TopMembers:         s.TopMembers,
		CreatedAt:          s.CreatedAt,
	}
}

func snapshotDocumentToModel(doc *SnapshotDocument) (*models.Snapshot, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot ID: %v", err)
	}
	return &models.Snapshot{
		ID:                 id,
		DiscordServerID:    doc.DiscordServerID,
		ServerName:         doc.ServerName,
		Members:            models.Gauge{Current: doc.Members},
		Messages:           models.Gauge{Current: doc.Messages},
		Voice:              models.Gauge{Current: doc.Voice},
		Joins:              models.Gauge{Current: doc.Joins},
		TextChannelsCount:  doc.TextChannelsCount,
		VoiceChannelsCount: doc.VoiceChannelsCount,
		RolesCount:         doc.RolesCount,
		EmojisCount:        doc.EmojisCount,
		Boosts:             doc.Boosts,
		AFKMembers:         doc.AFKMembers,
		TopChannels:        doc.TopChannels,
		TopMembers:         doc.TopMembers,
		CreatedAt:          doc.CreatedAt,
	}, nil
}

// InsertSnapshot stores a new analytics sample
func (m *MongoDB) InsertSnapshot(ctx context.Context, s *models.Snapshot) error {
	_, err := m.Snapshots.InsertOne(ctx, snapshotToDocument(s))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}
	return nil
}

// GetSnapshotsSince returns samples for a server taken after the given
// time, oldest first.
func (m *MongoDB) GetSnapshotsSince(ctx context.Context, discordServerID string, since time.Time) ([]*models.Snapshot, error) {
	cursor, err := m.Snapshots.Find(ctx,
		bson.M{
			"serverId":  discordServerID,
			"createdAt": bson.M{"$gte": since},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %v", err)
	}
	defer cursor.Close(ctx)

	var snapshots []*models.Snapshot
	for cursor.Next(ctx) {
		var doc SnapshotDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %v", err)
		}
		snap, err := snapshotDocumentToModel(&doc)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, cursor.Err()
}

// GetLatestSnapshotBefore returns the newest sample taken strictly
// before the given time, used as the delta baseline.
func (m *MongoDB) GetLatestSnapshotBefore(ctx context.Context, discordServerID string, before time.Time) (*models.Snapshot, error) {
	var doc SnapshotDocument
	err := m.Snapshots.FindOne(ctx,
		bson.M{
			"serverId":  discordServerID,
			"createdAt": bson.M{"$lt": before},
		},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshotDocumentToModel(&doc)
}

// EnsureSnapshotIndexes creates required indexes for the snapshots collection
func (m *MongoDB) EnsureSnapshotIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "serverId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
	}

	_, err := m.Snapshots.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create snapshot indexes: %v", err)
	}
	return nil
}
