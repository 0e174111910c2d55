package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Roles() *mongo.Collection {
	return db.Database.Collection("roles")
}

func (db *DB) Records() *mongo.Collection {
	return db.Database.Collection("records")
}

func (db *DB) ResetTokens() *mongo.Collection {
	return db.Database.Collection("reset_tokens")
}

// EnsureIndexes creates the uniqueness and lookup indexes the account core
// relies on: usernames (case-insensitive via usernameKey) and emails are
// globally unique, role names are unique, token digests are unique, and
// records are looked up by owner.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	userIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usernameKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Users().Indexes().CreateMany(ctx, userIdx); err != nil {
		return err
	}
	roleIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Roles().Indexes().CreateOne(ctx, roleIdx); err != nil {
		return err
	}
	tokenIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "digest", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	}
	if _, err := db.ResetTokens().Indexes().CreateMany(ctx, tokenIdx); err != nil {
		return err
	}
	recordIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	if _, err := db.Records().Indexes().CreateOne(ctx, recordIdx); err != nil {
		return err
	}
	return nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
