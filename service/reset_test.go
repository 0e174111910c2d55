package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/flickvault/flickvault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedResetUser(t *testing.T, users *memUsers) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("old password"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:       "alice",
		UsernameKey:    "alice",
		Email:          "alice@example.com",
		PasswordHash:   string(hash),
		EmailConfirmed: true,
		Roles:          []string{models.RoleUser},
	}
	id, err := users.Insert(context.Background(), user)
	require.NoError(t, err)
	user.ID = id
	return user
}

// tokenFromLink pulls the token value out of a mailed reset link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func newResetFixture(t *testing.T, ttl time.Duration) (*ResetService, *memUsers, *memTokens, *captureMailer) {
	t.Helper()
	users := newMemUsers()
	tokens := newMemTokens()
	mailer := &captureMailer{}
	svc := NewResetService(users, tokens, mailer, "http://localhost:8080", ttl, testLogger())
	return svc, users, tokens, mailer
}

func TestRequestResetUnknownEmail(t *testing.T) {
	svc, _, tokens, mailer := newResetFixture(t, time.Hour)

	err := svc.RequestReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, tokens.count())
	assert.Empty(t, mailer.links)
}

func TestRequestResetIssuesToken(t *testing.T) {
	svc, users, tokens, mailer := newResetFixture(t, time.Hour)
	seedResetUser(t, users)

	err := svc.RequestReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, tokens.count())

	link := mailer.lastLink()
	require.NotEmpty(t, link)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/reset-password?"))

	// Only the digest is stored, never the mailed value.
	value := tokenFromLink(t, link)
	stored, err := tokens.ByDigest(context.Background(), tokenDigest(value))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, value, stored.Digest)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	svc, users, tokens, mailer := newResetFixture(t, time.Hour)
	user := seedResetUser(t, users)

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	token := tokenFromLink(t, mailer.lastLink())

	err := svc.ResetPassword(context.Background(), "alice@example.com", token, "new password!")
	require.NoError(t, err)
	assert.Equal(t, 0, tokens.count())

	updated, _ := users.FindByID(context.Background(), user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new password!")))

	// Single use: the same token cannot be replayed.
	err = svc.ResetPassword(context.Background(), "alice@example.com", token, "another password")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSecondTokenInvalidatesFirst(t *testing.T) {
	svc, users, tokens, mailer := newResetFixture(t, time.Hour)
	seedResetUser(t, users)

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	first := tokenFromLink(t, mailer.lastLink())

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	second := tokenFromLink(t, mailer.lastLink())
	assert.Equal(t, 1, tokens.count())

	err := svc.ResetPassword(context.Background(), "alice@example.com", first, "new password!")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	err = svc.ResetPassword(context.Background(), "alice@example.com", second, "new password!")
	assert.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, users, _, mailer := newResetFixture(t, -time.Minute)
	seedResetUser(t, users)

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	token := tokenFromLink(t, mailer.lastLink())

	err := svc.ResetPassword(context.Background(), "alice@example.com", token, "new password!")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestResetPasswordUnknownUser(t *testing.T) {
	svc, _, _, _ := newResetFixture(t, time.Hour)

	err := svc.ResetPassword(context.Background(), "nobody@example.com", "whatever", "new password!")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPasswordPolicy(t *testing.T) {
	svc, users, _, mailer := newResetFixture(t, time.Hour)
	seedResetUser(t, users)

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	token := tokenFromLink(t, mailer.lastLink())

	err := svc.ResetPassword(context.Background(), "alice@example.com", token, "short")
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestResetLinkRoundTripsPlusAddressedEmail(t *testing.T) {
	svc, users, _, mailer := newResetFixture(t, time.Hour)
	carol := &models.User{
		Username:       "carol",
		UsernameKey:    "carol",
		Email:          "carol+movies@example.com",
		EmailConfirmed: true,
		Roles:          []string{models.RoleUser},
	}
	_, err := users.Insert(context.Background(), carol)
	require.NoError(t, err)

	require.NoError(t, svc.RequestReset(context.Background(), "carol+movies@example.com"))

	// The "+" must survive a standards-compliant query decode, so the
	// email submitted back from the link still matches the account.
	u, err := url.Parse(mailer.lastLink())
	require.NoError(t, err)
	email := u.Query().Get("email")
	assert.Equal(t, "carol+movies@example.com", email)

	err = svc.ResetPassword(context.Background(), email, u.Query().Get("token"), "new password!")
	assert.NoError(t, err)
}

func TestResetPasswordWrongUsersToken(t *testing.T) {
	svc, users, _, mailer := newResetFixture(t, time.Hour)
	seedResetUser(t, users)
	bob := &models.User{Username: "bob", UsernameKey: "bob", Email: "bob@example.com", Roles: []string{models.RoleUser}}
	_, err := users.Insert(context.Background(), bob)
	require.NoError(t, err)

	require.NoError(t, svc.RequestReset(context.Background(), "alice@example.com"))
	token := tokenFromLink(t, mailer.lastLink())

	// Alice's token must not reset Bob's password.
	err = svc.ResetPassword(context.Background(), "bob@example.com", token, "new password!")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
