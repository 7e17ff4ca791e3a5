// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client    *mongo.Client
	Users     *mongo.Collection
	Listings  *mongo.Collection
	Comments  *mongo.Collection
	Chats     *mongo.Collection
	Snapshots *mongo.Collection
}

func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	slog.Info("connected to MongoDB", "db", dbName)

	db := client.Database(dbName)
	return &MongoDB{
		Client:    client,
		Users:     db.Collection("users"),
		Listings:  db.Collection("listings"),
		Comments:  db.Collection("comments"),
		Chats:     db.Collection("chats"),
		Snapshots: db.Collection("snapshots"),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every collection relies on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if err := m.EnsureUserIndexes(ctx); err != nil {
		return err
	}
	if err := m.EnsureListingIndexes(ctx); err != nil {
		return err
	}
	if err := m.EnsureCommentIndexes(ctx); err != nil {
		return err
	}
	return m.EnsureSnapshotIndexes(ctx)
}
