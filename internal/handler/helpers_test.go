package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/config"
	"github.com/sakif/maxsports/internal/handler"
	"github.com/sakif/maxsports/internal/logging"
	"github.com/sakif/maxsports/internal/service"
)

// testEnv is a fully wired offline application on a temp data directory,
// plus its handlers.
type testEnv struct {
	app       *app.App
	auth      *handler.AuthHandler
	catalog   *handler.CatalogHandler
	favorites *handler.FavoritesHandler
	profile   *handler.ProfileHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Auth.BcryptCost = 4
	cfg.Catalog.Offline = true

	logger := logging.Discard()
	a, err := app.New(context.Background(), cfg, logger, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return &testEnv{
		app:       a,
		auth:      handler.NewAuthHandler(a.Auth, a.Tokens.TTL(), false, logger),
		catalog:   handler.NewCatalogHandler(a.Catalog, logger),
		favorites: handler.NewFavoritesHandler(a.Favorites, a.Catalog, logger),
		profile:   handler.NewProfileHandler(a.Profiles, a.Users, false, logger),
	}
}

// registerAlice creates and logs in alice/secret1 and returns her id.
func (e *testEnv) registerAlice(t *testing.T) string {
	t.Helper()
	res, err := e.app.Auth.Register(context.Background(), service.RegisterInput{
		Username:        "alice",
		Email:           "alice@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, false)
	require.NoError(t, err)
	return res.User.ID
}

// newRequest builds a request with an optional JSON body. A non-empty
// userID is put in the context the way RequireAuth would.
func newRequest(t *testing.T, method, target, userID string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
