package service

import (
	"context"
	"testing"

	"github.com/flickvault/flickvault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(users *memUsers, records *memRecords, tokens *memTokens, objects *memObjects) *AccountService {
	var store ObjectStore
	if objects != nil {
		store = objects
	}
	return NewAccountService(users, records, tokens, store, testLogger())
}

func TestRegisterCreatesUser(t *testing.T) {
	users := newMemUsers()
	svc := newAccountService(users, newMemRecords(), newMemTokens(), nil)

	user, err := svc.Register(context.Background(), "alice", "Alice@Example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.EmailConfirmed)
	assert.Equal(t, []string{models.RoleUser}, user.Roles)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.True(t, svc.VerifyPassword(user, "correct horse"))
}

func TestRegisterDuplicateUsernameFailsOnce(t *testing.T) {
	users := newMemUsers()
	svc := newAccountService(users, newMemRecords(), newMemTokens(), nil)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Alice", "other@example.com", "correct horse")
	require.Error(t, err)
	verrs, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verrs, "username")
	assert.Equal(t, 1, users.count())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAccountService(newMemUsers(), newMemRecords(), newMemTokens(), nil)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "bob", "alice@example.com", "correct horse")
	verrs, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verrs, "email")
}

func TestRegisterValidation(t *testing.T) {
	svc := newAccountService(newMemUsers(), newMemRecords(), newMemTokens(), nil)

	_, err := svc.Register(context.Background(), "al", "not-an-email", "short")
	verrs, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verrs, "username")
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "password")
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	svc := newAccountService(newMemUsers(), newMemRecords(), newMemTokens(), nil)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	user, err := svc.FindByName(context.Background(), "aLiCe")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Username)
}

func TestUpdatePassword(t *testing.T) {
	users := newMemUsers()
	svc := newAccountService(users, newMemRecords(), newMemTokens(), nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "old password")
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), user, "wrong", "new password!")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.UpdatePassword(context.Background(), user, "old password", "new password!")
	require.NoError(t, err)

	updated, err := svc.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, svc.VerifyPassword(updated, "old password"))
	assert.True(t, svc.VerifyPassword(updated, "new password!"))
}

func TestSetEmail(t *testing.T) {
	svc := newAccountService(newMemUsers(), newMemRecords(), newMemTokens(), nil)

	alice, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	bob, err := svc.Register(context.Background(), "bob", "bob@example.com", "correct horse")
	require.NoError(t, err)

	err = svc.SetEmail(context.Background(), bob.ID, "alice@example.com")
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = svc.SetEmail(context.Background(), bob.ID, "Robert@Example.com")
	require.NoError(t, err)
	updated, _ := svc.FindByID(context.Background(), bob.ID)
	assert.Equal(t, "robert@example.com", updated.Email)

	// Setting your own current email is a no-op, not a conflict.
	err = svc.SetEmail(context.Background(), alice.ID, "alice@example.com")
	assert.NoError(t, err)
}

func TestConfirmEmail(t *testing.T) {
	svc := newAccountService(newMemUsers(), newMemRecords(), newMemTokens(), nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmEmail(context.Background(), user.ID))
	updated, _ := svc.FindByID(context.Background(), user.ID)
	assert.True(t, updated.EmailConfirmed)
}

func TestDeleteCascades(t *testing.T) {
	users := newMemUsers()
	records := newMemRecords()
	tokens := newMemTokens()
	objects := newMemObjects()
	svc := newAccountService(users, records, tokens, objects)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = records.Insert(context.Background(), &models.Record{UserID: user.ID, Name: "Dune", Year: 2021, Type: models.TypeMovie})
	require.NoError(t, err)
	_, err = tokens.Insert(context.Background(), &models.PasswordResetToken{UserID: user.ID, Digest: "d"})
	require.NoError(t, err)
	objects.objects["profiles/alice.jpg"] = []byte{1}
	user.ProfilePicturePath = "profiles/alice.jpg"

	require.NoError(t, svc.Delete(context.Background(), user))

	assert.Equal(t, 0, users.count())
	assert.Equal(t, 0, records.count())
	assert.Equal(t, 0, tokens.count())
	assert.False(t, objects.has("profiles/alice.jpg"))
}
