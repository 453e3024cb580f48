package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/repository/blob"
	"github.com/sakif/maxsports/internal/storage"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Every service runs against real blob repositories on in-memory scopes.
// "Restarting" the process means building a new env that shares the
// durable scope but gets a fresh ephemeral one.

type testEnv struct {
	durable   storage.Scope
	ephemeral storage.Scope

	users     *CredentialStore
	sessions  *SessionManager
	favorites *FavoritesService
	profiles  *ProfileService
	auth      *AuthService
	notifier  *recordingNotifier
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDurable(t, storage.NewMemory())
}

func newTestEnvWithDurable(t *testing.T, durable storage.Scope) *testEnv {
	t.Helper()

	logger := discardLogger()
	ephemeral := storage.NewMemory()
	store := blob.New(durable)
	passwords := auth.NewPasswordServiceForTest()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	env := &testEnv{durable: durable, ephemeral: ephemeral, notifier: &recordingNotifier{}}
	env.users = NewCredentialStore(store, passwords, logger)
	env.sessions = NewSessionManager(storage.Scopes{Durable: durable, Ephemeral: ephemeral}, logger)
	env.favorites = NewFavoritesService(store, env.users, env.sessions, logger)
	env.profiles = NewProfileService(env.users, env.sessions, env.favorites, passwords, logger)
	env.auth = NewAuthService(env.users, env.sessions, tokens, env.notifier, logger)
	return env
}

// register creates a user with password "secret1".
func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return u
}

// login registers username and logs it in.
func (e *testEnv) login(t *testing.T, username string, remember bool) *model.User {
	t.Helper()
	e.register(t, username)
	res, err := e.auth.Login(context.Background(), username, "secret1", remember)
	require.NoError(t, err)
	return res.User
}

func card(id int, title string) model.ExerciseCard {
	return model.ExerciseCard{
		ID:        id,
		Title:     title,
		Level:     "Beginner",
		Equipment: "None",
		Tags:      []string{"home"},
	}
}

// =========================================================================
// FAKES
// =========================================================================

type recordingNotifier struct {
	users  []string
	tokens []string
}

func (n *recordingNotifier) SendReset(_ context.Context, user *model.User, token string) error {
	n.users = append(n.users, user.ID)
	n.tokens = append(n.tokens, token)
	return nil
}

// brokenScope fails every operation, simulating a store that went away.
type brokenScope struct{}

var errBroken = errors.New("disk is on fire")

func (brokenScope) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenScope) Set(context.Context, string, []byte) error   { return errBroken }
func (brokenScope) Clear(context.Context, string) error         { return errBroken }
