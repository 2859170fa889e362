package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"notes-api/db"
	"notes-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	svc, err := NewService(store, NewSigner("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return svc, store
}

func TestNewServiceDefaultCost(t *testing.T) {
	svc, err := NewService(db.NewMemoryStore(), NewSigner("secret"), 0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, svc.cost)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	user, token, err := svc.Register(ctx, " as@as.hu ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, user.ID.IsZero())
	assert.Equal(t, "as@as.hu", user.Email)

	saved, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", saved.Password)
	assert.True(t, CheckPassword(saved.Password, "secret1"))
	assert.Equal(t, []models.Token{{Access: models.AccessAuth, Token: token}}, saved.Tokens)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	cases := []struct {
		title    string
		email    string
		password string
		expField string
	}{
		{title: "invalid-email", email: "as", password: "secret1", expField: "email"},
		{title: "short-password", email: "b@as.hu", password: "12345", expField: "password"},
		{title: "duplicate-email", email: "as@as.hu", password: "another", expField: "email"},
		{title: "long-password", email: "c@as.hu", password: strings.Repeat("p", 80), expField: "password"},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			_, token, err := svc.Register(ctx, c.email, c.password)
			assert.Empty(t, token)
			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, c.expField, ve.Errors[0].Field)
		})
	}

	// the first user is untouched by the duplicate attempt
	u, err := svc.FindByCredentials(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)
	assert.Len(t, u.Tokens, 1)
}

func TestFindByToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, token, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	got, err := svc.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)

	otherScope, err := svc.Signer().Sign(user.ID.Hex(), "reset")
	require.NoError(t, err)
	badID, err := svc.Signer().Sign("123abc", models.AccessAuth)
	require.NoError(t, err)
	unknownUser, err := svc.Signer().Sign("5f1d7a3b9c8e4a2b1c0d9e8f", models.AccessAuth)
	require.NoError(t, err)
	notIssued, err := svc.Signer().Sign(user.ID.Hex(), models.AccessAuth)
	require.NoError(t, err)

	for title, tok := range map[string]string{
		"empty":        "",
		"garbage":      "garbage",
		"other-scope":  otherScope,
		"malformed-id": badID,
		"unknown-user": unknownUser,
		"not-issued":   notIssued,
	} {
		t.Run(title, func(t *testing.T) {
			_, err := svc.FindByToken(ctx, tok)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestRemoveToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, first, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)
	_, second, err := svc.Login(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveToken(ctx, user, first))
	assert.NotContains(t, user.Tokens, models.Token{Access: models.AccessAuth, Token: first})

	_, err = svc.FindByToken(ctx, first)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	got, err := svc.FindByToken(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// removing it again is a no-op
	assert.NoError(t, svc.RemoveToken(ctx, user, first))
}

func TestFindByCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, _, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	got, err := svc.FindByCredentials(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, wrongPass := svc.FindByCredentials(ctx, "as@as.hu", "secret2")
	_, noUser := svc.FindByCredentials(ctx, "nobody@as.hu", "secret1")
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), noUser.Error())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	user, first, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	got, second, err := svc.Login(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEqual(t, first, second)

	saved, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Tokens, 2)

	_, token, err := svc.Login(ctx, "as@as.hu", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestPasswordNotRehashed(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	user, _, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)
	hash := user.Password

	loaded, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.hashIfModified(loaded))
	assert.Equal(t, hash, loaded.Password)

	_, err = svc.GenerateAuthToken(ctx, loaded)
	require.NoError(t, err)
	loaded, err = store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, hash, loaded.Password)

	_, err = svc.FindByCredentials(ctx, "as@as.hu", "secret1")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, _, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	var ve *models.ValidationError
	assert.True(t, errors.As(svc.ChangePassword(ctx, user, "123"), &ve))
	assert.False(t, user.PasswordModified())
	require.True(t, errors.As(svc.ChangePassword(ctx, user, strings.Repeat("p", 80)), &ve))
	assert.Equal(t, "password", ve.Errors[0].Field)
	assert.False(t, user.PasswordModified())

	// a rejected password is not hashed by a later save
	hash := user.Password
	require.NoError(t, svc.hashIfModified(user))
	assert.Equal(t, hash, user.Password)
	_, err = svc.FindByCredentials(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user, "secret2"))
	assert.False(t, user.PasswordModified())
	assert.True(t, CheckPassword(user.Password, "secret2"))
	_, err = svc.FindByCredentials(ctx, "as@as.hu", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.FindByCredentials(ctx, "as@as.hu", "secret2")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, token, err := svc.Register(ctx, "as@as.hu", "secret1")
	require.NoError(t, err)

	deleted, err := svc.DeleteUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, deleted.Email)

	_, err = svc.FindByToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.DeleteUser(ctx, user.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
