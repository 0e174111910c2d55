package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

var ValidRoles = []string{RoleAdmin, RoleUser}

// Role is a named permission group. Role documents are ensured at startup
// and never deleted while any user references them; the hot path reads the
// role names embedded on the user document.
type Role struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username           string             `bson:"username" json:"username"`
	UsernameKey        string             `bson:"usernameKey" json:"-"` // lowercased, for case-insensitive uniqueness
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"passwordHash" json:"-"` // bcrypt hash
	EmailConfirmed     bool               `bson:"emailConfirmed" json:"emailConfirmed"`
	ProfilePicturePath string             `bson:"profilePicturePath,omitempty" json:"profilePicturePath,omitempty"`
	Roles              []string           `bson:"roles" json:"roles"` // always contains "User"
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
