package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/flickvault/flickvault/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenRepo is the persistence surface for reset tokens. *store.TokenStore
// satisfies it.
type TokenRepo interface {
	Insert(ctx context.Context, t *models.PasswordResetToken) (primitive.ObjectID, error)
	ByDigest(ctx context.Context, digest string) (*models.PasswordResetToken, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// ResetMailer delivers the reset link. Send failures are logged, never
// surfaced to the requester.
type ResetMailer interface {
	SendPasswordReset(to, link string) error
}

// ResetService issues and consumes single-use, time-limited password-reset
// tokens. Issuing a new token invalidates any prior one for the same user,
// so at most one valid token is outstanding per user.
type ResetService struct {
	users   UserRepo
	tokens  TokenRepo
	mailer  ResetMailer // nil when SMTP is not configured
	baseURL string
	ttl     time.Duration
	log     *zap.SugaredLogger
}

func NewResetService(users UserRepo, tokens TokenRepo, mailer ResetMailer, baseURL string, ttl time.Duration, log *zap.SugaredLogger) *ResetService {
	return &ResetService{users: users, tokens: tokens, mailer: mailer, baseURL: baseURL, ttl: ttl, log: log}
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestReset issues a token for the account behind email and mails the
// reset link. An unknown email is not an error: the caller shows the same
// notice either way so responses never reveal whether an account exists.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	if _, err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
		return err
	}
	value := uuid.NewString()
	now := time.Now()
	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Digest:    tokenDigest(value),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if _, err := s.tokens.Insert(ctx, token); err != nil {
		return err
	}
	// Build the query with url.Values so addresses like "alice+x@example.com"
	// survive the round trip back from the link.
	q := url.Values{}
	q.Set("email", user.Email)
	q.Set("token", value)
	link := fmt.Sprintf("%s/reset-password?%s", s.baseURL, q.Encode())
	if s.mailer == nil {
		s.log.Warnw("smtp not configured; reset link not delivered", "user", user.Username)
		return nil
	}
	if err := s.mailer.SendPasswordReset(user.Email, link); err != nil {
		s.log.Errorw("send reset mail", "user", user.Username, "err", err)
	}
	return nil
}

// ResetPassword validates and consumes a token, then replaces the user's
// password hash. The token is deleted before the new hash lands, so a
// second attempt with the same token fails with ErrTokenInvalid.
func (s *ResetService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if len(newPassword) < minPasswordLen {
		return ValidationErrors{"newPassword": "password must be at least 8 characters"}
	}
	stored, err := s.tokens.ByDigest(ctx, tokenDigest(token))
	if err != nil {
		return err
	}
	if stored == nil || stored.UserID != user.ID {
		return ErrTokenInvalid
	}
	if stored.Expired(time.Now()) {
		// Consume on expiry too; an expired token is dead either way.
		if err := s.tokens.DeleteByID(ctx, stored.ID); err != nil {
			s.log.Errorw("delete expired reset token", "err", err)
		}
		return ErrTokenExpired
	}
	if err := s.tokens.DeleteByID(ctx, stored.ID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, user.ID, string(hash))
}
