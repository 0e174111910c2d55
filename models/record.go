package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record type constants.
const (
	TypeMovie  = "movie"
	TypeSeries = "series"
)

// Record is a user-submitted title request tracked for fulfillment.
type Record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	Year      int                `bson:"year" json:"year"`
	Type      string             `bson:"type" json:"type"` // "movie" or "series"
	PosterURL string             `bson:"posterUrl,omitempty" json:"posterUrl,omitempty"`
	Overview  string             `bson:"overview,omitempty" json:"overview,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
