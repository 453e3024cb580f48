package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/model"
)

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", true)

	updated, err := env.profiles.UpdateProfile(ctx, u.ID, ProfileInput{
		DisplayName: "  Alice <b>A.</b> ",
		Phone:       "555-0100",
		Bio:         `<script>alert(1)</script>Leg day every day`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.Profile.DisplayName)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, "Leg day every day", updated.Profile.Bio)
	assert.False(t, updated.UpdatedAt.IsZero())

	sess, err := env.sessions.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", sess.User.Profile.DisplayName, "session copy is refreshed")
}

func TestUpdateProfile_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", false)

	for name, in := range map[string]ProfileInput{
		"empty name":       {DisplayName: "   "},
		"markup-only name": {DisplayName: "<img src=x>"},
		"name too long":    {DisplayName: strings.Repeat("n", 31)},
		"bio too long":     {DisplayName: "ok", Bio: strings.Repeat("b", 201)},
		"phone too long":   {DisplayName: "ok", Phone: strings.Repeat("1", 21)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.profiles.UpdateProfile(ctx, u.ID, in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	_, err := env.profiles.UpdateProfile(ctx, "", ProfileInput{DisplayName: "ok"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUpdatePreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", false)

	updated, err := env.profiles.UpdatePreferences(ctx, u.ID, PreferencesInput{Theme: "DARK"})
	require.NoError(t, err)
	assert.Equal(t, model.Preferences{Theme: model.ThemeDark}, updated.Profile.Preferences)

	updated, err = env.profiles.UpdatePreferences(ctx, u.ID, PreferencesInput{Notifications: true})
	require.NoError(t, err)
	assert.Equal(t, model.ThemeAuto, updated.Profile.Preferences.Theme)

	_, err = env.profiles.UpdatePreferences(ctx, u.ID, PreferencesInput{Theme: "neon"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", false)

	tests := []struct {
		name                   string
		current, next, confirm string
	}{
		{"wrong current", "nope", "newpass1", "newpass1"},
		{"too short", "secret1", "12345", "12345"},
		{"mismatch", "secret1", "newpass1", "newpass2"},
		{"same as current", "secret1", "secret1", "secret1"},
		{"no current", "", "newpass1", "newpass1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.profiles.ChangePassword(ctx, u.ID, tt.current, tt.next, tt.confirm)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	require.NoError(t, env.profiles.ChangePassword(ctx, u.ID, "secret1", "newpass1", "newpass1"))

	_, err := env.users.FindByCredentials(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "old password must stop working")
	got, err := env.users.FindByCredentials(ctx, "alice", "newpass1")
	require.NoError(t, err)
	assert.False(t, got.PasswordChangedAt.IsZero())
}

func TestAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", false)

	def := Avatar(u)
	assert.True(t, strings.HasPrefix(def, "data:image/svg+xml;base64,"))
	assert.Equal(t, DefaultAvatar(u), def)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))
	updated, err := env.profiles.SetAvatar(ctx, u.ID, uri)
	require.NoError(t, err)
	require.NotNil(t, updated.Profile.Avatar)
	assert.Equal(t, uri, Avatar(updated))

	_, err = env.profiles.SetAvatar(ctx, u.ID, "data:text/html;base64,PGI+")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	updated, err = env.profiles.RemoveAvatar(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.Profile.Avatar)
	assert.Equal(t, def, Avatar(updated))
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.login(t, "alice", true)
	_, _, err := env.favorites.Add(ctx, u.ID, card(1, "Plank"))
	require.NoError(t, err)

	err = env.profiles.DeleteAccount(ctx, u.ID, "wrong")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, env.profiles.DeleteAccount(ctx, u.ID, "secret1"))

	_, err = env.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	all, err := env.favorites.repo.LoadFavorites(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, u.ID)

	sess, err := env.sessions.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
}
