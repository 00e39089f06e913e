package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/washa/backend/internal/auth"
	"github.com/washa/backend/internal/db"
	"github.com/washa/backend/internal/repository/memory"
)

func newService(store *memory.Store) *auth.Service {
	return auth.NewService(store.Auth(), auth.NewJWTManager("iss", "aud", "secret"), 15*time.Minute, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterInput{Username: "officer", Password: "secret1", Email: " Officer@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, db.RoleLoanOfficer, user.Role)
	assert.Equal(t, "officer@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(ctx, auth.RegisterInput{Username: "OFFICER", Password: "secret1"})
	require.ErrorIs(t, err, db.ErrUserExists)

	_, err = svc.Login(ctx, "officer", "wrong", "", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ghost", "secret1", "", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	tokens, err := svc.Login(ctx, "officer", "secret1", "ua", "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, tokens.User.LastLogin)

	claims, err := svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, db.RoleLoanOfficer, claims.Role)

	_, err = svc.Authenticate(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRegisterCannotCreateAdmin(t *testing.T) {
	svc := newService(memory.New())
	_, err := svc.Register(context.Background(), auth.RegisterInput{Username: "boss", Password: "secret1", Role: "admin"})
	require.ErrorIs(t, err, auth.ErrInvalidRegister)
	_, err = svc.Register(context.Background(), auth.RegisterInput{Username: "ab", Password: "secret1"})
	require.ErrorIs(t, err, auth.ErrInvalidRegister)
}

func TestRefreshRotatesSession(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	_, err := svc.Register(ctx, auth.RegisterInput{Username: "officer", Password: "secret1"})
	require.NoError(t, err)
	first, err := svc.Login(ctx, "officer", "secret1", "", "")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	_, err = svc.Refresh(ctx, first.RefreshToken, "", "")
	require.ErrorIs(t, err, auth.ErrSessionRevoked)
	_, err = svc.Authenticate(ctx, first.AccessToken)
	require.ErrorIs(t, err, auth.ErrSessionRevoked)

	require.NoError(t, svc.Logout(ctx, second.RefreshToken))
	_, err = svc.Authenticate(ctx, second.AccessToken)
	require.ErrorIs(t, err, auth.ErrSessionRevoked)

	require.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	user, err := svc.Register(ctx, auth.RegisterInput{Username: "officer", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, store.Auth().UpdateUserStatus(ctx, user.ID, db.StatusInactive))

	_, err = svc.Login(ctx, "officer", "secret1", "", "")
	require.ErrorIs(t, err, auth.ErrAccountInactive)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	none, created, err := svc.EnsureAdmin(ctx, "admin", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.False(t, created)

	admin, created, err := svc.EnsureAdmin(ctx, "admin", "changeme", "admin@example.com", "System Administrator")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, db.RoleAdmin, admin.Role)

	again, created, err := svc.EnsureAdmin(ctx, "admin", "changeme", "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	n, err := store.Auth().CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
