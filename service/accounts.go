package service

import (
	"context"
	"strings"
	"time"

	"github.com/flickvault/flickvault/models"
	"github.com/flickvault/flickvault/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// UserRepo is the persistence surface the account service needs.
// *store.UserStore satisfies it.
type UserRepo interface {
	Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	SetEmail(ctx context.Context, id primitive.ObjectID, email string) error
	SetEmailConfirmed(ctx context.Context, id primitive.ObjectID, confirmed bool) error
	SetProfilePicturePath(ctx context.Context, id primitive.ObjectID, path string) error
	AdminsCount(ctx context.Context) (int64, error)
}

// RecordPurger deletes every record owned by a user; used when an account
// is removed.
type RecordPurger interface {
	DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// TokenPurger deletes every reset token for a user.
type TokenPurger interface {
	DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// AccountService owns user records, password hashes, the confirmation flag
// and role memberships. Plaintext passwords never leave the call stack.
type AccountService struct {
	users   UserRepo
	records RecordPurger
	tokens  TokenPurger
	objects ObjectStore // nil when object storage is not configured
	log     *zap.SugaredLogger
}

func NewAccountService(users UserRepo, records RecordPurger, tokens TokenPurger, objects ObjectStore, log *zap.SugaredLogger) *AccountService {
	return &AccountService{users: users, records: records, tokens: tokens, objects: objects, log: log}
}

// Register creates a user with the "User" role and an unconfirmed email.
// Taken usernames/emails and an unmet password policy come back as
// ValidationErrors.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	verrs := ValidationErrors{}
	if len(username) < 3 || len(username) > 32 {
		verrs["username"] = "username must be between 3 and 32 characters"
	}
	if !strings.Contains(email, "@") {
		verrs["email"] = "a valid email address is required"
	}
	if len(password) < minPasswordLen {
		verrs["password"] = "password must be at least 8 characters"
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	if existing, err := s.users.ByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ValidationErrors{"username": "username is already taken"}
	}
	if existing, err := s.users.ByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ValidationErrors{"email": "email is already in use"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		UsernameKey:  strings.ToLower(username),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{models.RoleUser},
		CreatedAt:    time.Now(),
	}
	id, err := s.users.Insert(ctx, user)
	if err != nil {
		// The unique index closes the race between the check above and the
		// insert: a concurrent duplicate lands here, never as a second row.
		if store.IsDuplicate(err) {
			return nil, ValidationErrors{"username": "username or email is already taken"}
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

// FindByName looks a user up by username, case-insensitively.
func (s *AccountService) FindByName(ctx context.Context, username string) (*models.User, error) {
	return s.users.ByUsername(ctx, username)
}

func (s *AccountService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// VerifyPassword reports whether plaintext matches the user's stored hash.
func (s *AccountService) VerifyPassword(user *models.User, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plaintext)) == nil
}

// UpdatePassword replaces the user's password after verifying the current
// one; returns ErrWrongPassword when verification fails.
func (s *AccountService) UpdatePassword(ctx context.Context, user *models.User, current, newPassword string) error {
	if !s.VerifyPassword(user, current) {
		return ErrWrongPassword
	}
	if len(newPassword) < minPasswordLen {
		return ValidationErrors{"newPassword": "password must be at least 8 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, user.ID, string(hash))
}

// SetEmail changes a user's email, keeping emails globally unique.
func (s *AccountService) SetEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ValidationErrors{"email": "a valid email address is required"}
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	existing, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != id {
		return ErrEmailTaken
	}
	return s.users.SetEmail(ctx, id, email)
}

// ConfirmEmail flips the confirmation flag so the user may log in.
func (s *AccountService) ConfirmEmail(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	return s.users.SetEmailConfirmed(ctx, id, true)
}

func (s *AccountService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// AdminsCount reports how many users hold the Admin role.
func (s *AccountService) AdminsCount(ctx context.Context) (int64, error) {
	return s.users.AdminsCount(ctx)
}

// Delete removes a user and everything hanging off it: title requests,
// outstanding reset tokens, and the stored profile picture.
func (s *AccountService) Delete(ctx context.Context, user *models.User) error {
	if _, err := s.records.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}
	if _, err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
		return err
	}
	if s.objects != nil && user.ProfilePicturePath != "" {
		if err := s.objects.Delete(ctx, user.ProfilePicturePath); err != nil {
			s.log.Errorw("delete profile picture object", "user", user.Username, "err", err)
		}
	}
	return s.users.DeleteByID(ctx, user.ID)
}
