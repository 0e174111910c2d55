package store

import (
	"context"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordStore persists title-request records.
type RecordStore struct {
	*Collection[models.Record]
}

func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{Collection: NewCollection[models.Record](db.Records())}
}

func (s *RecordStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Record, error) {
	return s.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (s *RecordStore) ListAll(ctx context.Context) ([]models.Record, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (s *RecordStore) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"userId": userID})
}
