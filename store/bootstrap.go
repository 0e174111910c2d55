package store

import (
	"context"
	"strings"
	"time"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap runs the idempotent startup routine: indexes, the Admin/User
// role documents, and the admin account from config. It never touches an
// existing admin user's credentials.
func Bootstrap(ctx context.Context, db *DB, adminUsername, adminEmail, adminPassword string) error {
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	for _, name := range models.ValidRoles {
		filter := bson.M{"name": name}
		update := bson.M{"$setOnInsert": bson.M{"name": name}}
		if _, err := db.Roles().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}

	users := NewUserStore(db)
	existing, err := users.ByUsername(ctx, adminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:       adminUsername,
		UsernameKey:    strings.ToLower(strings.TrimSpace(adminUsername)),
		Email:          strings.ToLower(strings.TrimSpace(adminEmail)),
		PasswordHash:   string(hash),
		EmailConfirmed: true,
		Roles:          []string{models.RoleAdmin, models.RoleUser},
		CreatedAt:      time.Now(),
	}
	_, err = users.Insert(ctx, admin)
	if IsDuplicate(err) {
		// Another replica won the race; the admin exists either way.
		return nil
	}
	return err
}
