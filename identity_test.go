package duosite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndSignIn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acc, err := s.SignUp(ctx, "  Fan@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", acc.Email)
	assert.NotEqual(t, "password123", acc.PasswordHash)

	_, err = s.SignUp(ctx, "fan@example.com", "another-pass")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)

	got, err := s.SignIn(ctx, "FAN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = s.SignIn(ctx, "fan@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	profile, err := s.GetProfile(ctx, acc.ID)
	require.NoError(t, err, "sign up creates an empty profile")
	assert.Empty(t, profile.Username)
}

func TestSignUpValidation(t *testing.T) {
	s := setupTestStore(t)
	tests := []struct {
		email, password, field string
	}{
		{"", "password123", "email"},
		{"not-an-email", "password123", "email"},
		{"fan@example.com", "short", "password"},
	}
	for _, tt := range tests {
		_, err := s.SignUp(context.Background(), tt.email, tt.password)
		var ve *ValidationError
		if assert.ErrorAs(t, err, &ve, "%q/%q", tt.email, tt.password) {
			assert.Equal(t, tt.field, ve.Field)
		}
	}
}

func TestAuthorize(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	fan, err := s.SignUp(ctx, "fan@example.com", "password123")
	require.NoError(t, err)

	tests := []struct {
		name string
		id   Identity
		want Access
	}{
		{"no session", Identity{DeviceKey: "d"}, AccessNoSession},
		{"non-admin", Identity{UserID: fan.ID, Email: fan.Email}, AccessDenied},
		{"admin", admin, AccessAdmin},
		{"stale session", Identity{UserID: "deleted-account"}, AccessDenied},
	}
	for _, tt := range tests {
		got, err := s.Authorize(ctx, tt.id)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.want == AccessAdmin, s.IsAdmin(ctx, tt.id), tt.name)
	}
}

func TestGrantAdmin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GrantAdmin(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SignUp(ctx, "fan@example.com", "password123")
	require.NoError(t, err)
	admin, err := s.GrantAdmin(ctx, "fan@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsSuperAdmin)

	// Granting twice is idempotent.
	_, err = s.GrantAdmin(ctx, "fan@example.com")
	require.NoError(t, err)
	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestEnsureAdmin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	admin, err := s.EnsureAdmin(ctx, "boss@example.com", "first-password")
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", admin.Email)

	// A changed password is applied on the next bootstrap.
	_, err = s.EnsureAdmin(ctx, "boss@example.com", "second-password")
	require.NoError(t, err)
	_, err = s.SignIn(ctx, "boss@example.com", "first-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	acc, err := s.SignIn(ctx, "boss@example.com", "second-password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, acc.ID)
}

func TestUpdateProfile(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")

	p, err := s.UpdateProfile(ctx, admin, Profile{Username: " telvin ", Bio: "Singer"})
	require.NoError(t, err)
	assert.Equal(t, "telvin", p.Username)
	assert.Equal(t, admin.UserID, p.ID)

	_, err = s.UpdateProfile(ctx, admin, Profile{Username: strings.Repeat("x", 41)})
	assert.True(t, IsValidation(err))

	_, err = s.UpdateProfile(ctx, Identity{DeviceKey: "d"}, Profile{Username: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
