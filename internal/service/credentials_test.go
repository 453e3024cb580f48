package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
)

func TestRegister_CreatesActiveUserWithDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, RegisterInput{
		Username:        "  alice ",
		Email:           "alice@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Phone:           " 555-0100 ",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u.ID, "user_"), "id = %q", u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "555-0100", u.Phone)
	assert.True(t, u.IsActive)
	assert.False(t, u.CreatedAt.IsZero())
	assert.True(t, auth.IsBcrypt(u.Password), "password must be stored as bcrypt")
	assert.Equal(t, "alice", u.Profile.DisplayName)
	assert.Nil(t, u.Profile.Avatar)
	assert.Equal(t, model.Preferences{Notifications: true, Newsletter: true, Theme: model.ThemeAuto}, u.Profile.Preferences)

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
}

func TestRegister_Validation(t *testing.T) {
	valid := RegisterInput{Username: "alice", Email: "alice@x.com", Password: "secret1", ConfirmPassword: "secret1"}

	tests := []struct {
		name      string
		mutate    func(*RegisterInput)
		wantField string
	}{
		{"username too short", func(in *RegisterInput) { in.Username = "al" }, "username"},
		{"username too long", func(in *RegisterInput) { in.Username = strings.Repeat("a", 21) }, "username"},
		{"username only spaces", func(in *RegisterInput) { in.Username = "     " }, "username"},
		{"email without at", func(in *RegisterInput) { in.Email = "alice.x.com" }, "email"},
		{"email without dot", func(in *RegisterInput) { in.Email = "alice@x" }, "email"},
		{"email with space", func(in *RegisterInput) { in.Email = "al ice@x.com" }, "email"},
		{"password too short", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "12345", "12345" }, "password"},
		{"confirmation differs", func(in *RegisterInput) { in.ConfirmPassword = "secret2" }, "confirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := valid
			tt.mutate(&in)

			_, err := env.users.Register(context.Background(), in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestRegister_BoundaryLengthsAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"abc", strings.Repeat("b", 20)} {
		_, err := env.users.Register(ctx, RegisterInput{
			Username: name, Email: name + "@x.com", Password: "123456", ConfirmPassword: "123456",
		})
		assert.NoError(t, err, "username %q", name)
	}
}

func TestRegister_ConflictIgnoresCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	_, err := env.users.Register(ctx, RegisterInput{
		Username: "ALICE", Email: "other@x.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = env.users.Register(ctx, RegisterInput{
		Username: "bob", Email: "Alice@X.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.ErrorIs(t, err, apperror.ErrConflict)

	users, _ := env.users.List(ctx)
	assert.Len(t, users, 1, "a failed registration must not persist anything")
}

func TestFindByCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.register(t, "alice")

	for _, id := range []string{"alice", "ALICE", "alice@x.com", "Alice@X.COM", " alice "} {
		u, err := env.users.FindByCredentials(ctx, id, "secret1")
		require.NoError(t, err, "identifier %q", id)
		assert.Equal(t, created.ID, u.ID)
	}

	for _, tc := range []struct{ id, pw string }{
		{"alice", "wrong-password"},
		{"nobody", "secret1"},
		{"", "secret1"},
		{"alice", ""},
	} {
		_, err := env.users.FindByCredentials(ctx, tc.id, tc.pw)
		assert.ErrorIs(t, err, apperror.ErrNotFound, "%q/%q", tc.id, tc.pw)
	}
}

func TestFindByCredentials_UpgradesLegacyDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := env.users.Import(ctx, []model.User{{
		ID:       "user_legacy",
		Username: "oldtimer",
		Email:    "old@x.com",
		Password: auth.LegacyDigest("secret1"),
		IsActive: true,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	u, err := env.users.FindByCredentials(ctx, "oldtimer", "secret1")
	require.NoError(t, err)
	assert.True(t, auth.IsBcrypt(u.Password), "returned record should carry the new digest")

	stored, err := env.users.FindByID(ctx, "user_legacy")
	require.NoError(t, err)
	assert.True(t, auth.IsBcrypt(stored.Password), "stored digest should be upgraded")

	// Still works with the upgraded digest.
	_, err = env.users.FindByCredentials(ctx, "old@x.com", "secret1")
	assert.NoError(t, err)
}

func TestFindByIDAndEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "alice")

	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = env.users.FindByEmail(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = env.users.FindByID(ctx, "user_missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = env.users.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSaveAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	alice.Profile.Bio = "lifts things"
	require.NoError(t, env.users.Save(ctx, alice))

	got, err := env.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "lifts things", got.Profile.Bio)

	require.NoError(t, env.users.Delete(ctx, alice.ID))
	assert.ErrorIs(t, env.users.Delete(ctx, alice.ID), apperror.ErrNotFound)

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)

	ghost := &model.User{ID: "user_ghost"}
	assert.ErrorIs(t, env.users.Save(ctx, ghost), apperror.ErrNotFound)
}

func TestUpdate_ErrorSavesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "alice")

	_, err := env.users.Update(ctx, u.ID, func(u *model.User) error {
		u.Profile.Bio = "should not stick"
		return apperror.ValidationFailed("bio", "nope")
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	got, _ := env.users.FindByID(ctx, u.ID)
	assert.Empty(t, got.Profile.Bio)
}

func TestImport_SkipsExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	n, err := env.users.Import(ctx, []model.User{
		{ID: alice.ID, Username: "someone", Email: "someone@x.com"},
		{ID: "user_2", Username: "ALICE", Email: "a2@x.com"},
		{ID: "user_3", Username: "carol", Email: "carol@x.com"},
		{ID: "", Username: "noid", Email: "noid@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	carol, err := env.users.FindByID(ctx, "user_3")
	require.NoError(t, err)
	assert.Equal(t, "carol", carol.Profile.DisplayName, "display name defaults to username")
}

func TestCredentialStore_StorageFailure(t *testing.T) {
	env := newTestEnvWithDurable(t, brokenScope{})
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterInput{
		Username: "alice", Email: "alice@x.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.ErrorIs(t, err, errBroken)

	_, err = env.users.List(ctx)
	require.ErrorIs(t, err, errBroken)
}
