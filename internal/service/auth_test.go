package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

func TestAuth_SignupLoginRefreshLogout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.Auth.Signup(ctx, transport.SignupRequest{Email: " Alice@Example.com ", Password: "password123", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "user", u.Role)

	_, err = e.Auth.Signup(ctx, transport.SignupRequest{Email: "alice@example.com", Password: "password123", Name: "Again"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.Auth.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	res, err := e.Auth.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, u.ID, res.User.ID)

	rotated, err := e.Auth.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	// the old refresh token was revoked by rotation
	_, err = e.Auth.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, e.Auth.LogOut(ctx, rotated.RefreshToken))
	_, err = e.Auth.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuth_SignupValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	cases := []transport.SignupRequest{
		{Email: "", Password: "password123", Name: "x"},
		{Email: "a@b.c", Password: "short", Name: "x"},
		{Email: "a@b.c", Password: "password123", Name: " "},
	}
	for _, req := range cases {
		_, err := e.Auth.Signup(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestUsers_DeleteBlocksLogin(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.Auth.Signup(ctx, transport.SignupRequest{Email: "bob@example.com", Password: "password123", Name: "Bob"})
	require.NoError(t, err)

	name := "Robert"
	updated, err := e.Users.Update(ctx, u.ID, transport.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)

	err = e.Users.ChangePassword(ctx, u.ID, transport.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, ErrValidation)
	require.NoError(t, e.Users.ChangePassword(ctx, u.ID, transport.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"}))

	_, err = e.Auth.Login(ctx, "bob@example.com", "newpassword1")
	require.NoError(t, err)

	require.NoError(t, e.Users.Delete(ctx, u.ID))
	_, err = e.Auth.Login(ctx, "bob@example.com", "newpassword1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.Users.Me(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_EnsureAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, created, err := e.Users.EnsureAdmin(ctx, "Root@Example.com", "password123", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "root@example.com", u.Email)

	res, err := e.Auth.Login(ctx, "root@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User.Role)

	plain := testutil.CreateUser(t, e.DB, "plain@example.com", "user")
	promoted, created, err := e.Users.EnsureAdmin(ctx, plain.Email, "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, plain.ID, promoted.ID)

	me, err := e.Users.Me(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Role)

	_, _, err = e.Users.EnsureAdmin(ctx, "new@example.com", "short", "")
	assert.ErrorIs(t, err, ErrValidation)
}
