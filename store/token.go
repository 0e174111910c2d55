package store

import (
	"context"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenStore persists password-reset tokens.
type TokenStore struct {
	*Collection[models.PasswordResetToken]
}

func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{Collection: NewCollection[models.PasswordResetToken](db.ResetTokens())}
}

func (s *TokenStore) ByDigest(ctx context.Context, digest string) (*models.PasswordResetToken, error) {
	return s.FindOne(ctx, bson.M{"digest": digest})
}

// DeleteForUser drops every token for the user. Issuing a new token calls
// this first so at most one valid token is ever outstanding.
func (s *TokenStore) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"userId": userID})
}
