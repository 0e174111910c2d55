package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetToken is a single-use, time-limited recovery artifact bound
// to one user. Only a digest of the token value is stored; the value itself
// goes out in the reset link.
type PasswordResetToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Digest    string             `bson:"digest" json:"-"` // sha256 of the token value
	IssuedAt  time.Time          `bson:"issuedAt" json:"issuedAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
}

// Expired reports whether the token's validity window has passed.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
