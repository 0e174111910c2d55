package store

import (
	"context"
	"strings"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore persists users through the generic collection contract plus
// the lookups the account services need.
type UserStore struct {
	*Collection[models.User]
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{Collection: NewCollection[models.User](db.Users())}
}

// ByUsername looks a user up case-insensitively. Returns (nil, nil) when absent.
func (s *UserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.FindOne(ctx, bson.M{"usernameKey": strings.ToLower(strings.TrimSpace(username))})
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
}

func (s *UserStore) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.UpdateByID(ctx, id, bson.M{"passwordHash": hash})
}

func (s *UserStore) SetEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	return s.UpdateByID(ctx, id, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserStore) SetEmailConfirmed(ctx context.Context, id primitive.ObjectID, confirmed bool) error {
	return s.UpdateByID(ctx, id, bson.M{"emailConfirmed": confirmed})
}

func (s *UserStore) SetProfilePicturePath(ctx context.Context, id primitive.ObjectID, path string) error {
	return s.UpdateByID(ctx, id, bson.M{"profilePicturePath": path})
}

func (s *UserStore) AdminsCount(ctx context.Context) (int64, error) {
	return s.Count(ctx, bson.M{"roles": models.RoleAdmin})
}

// IsDuplicate reports whether err is a uniqueness-index violation, which is
// how a concurrent duplicate signup surfaces.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
