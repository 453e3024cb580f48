package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/config"
	"github.com/sakif/maxsports/internal/logging"
	"github.com/sakif/maxsports/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Auth.BcryptCost = 4
	cfg.Catalog.Offline = true

	a, err := app.New(context.Background(), cfg, logging.Discard(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return server.New(a)
}

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func TestServer_CookieFlow(t *testing.T) {
	ts := httptest.NewServer(newServer(t).Handler())
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar
	api := &apiClient{t: t, base: ts.URL, http: client}

	status, body := api.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, _ = api.do(http.MethodGet, "/api/favorites", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "protected routes need a login")

	status, body = api.do(http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice", "email": "alice@x.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = api.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"username":"alice"`)

	status, body = api.do(http.MethodPost, "/api/favorites", map[string]any{"id": 4})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = api.do(http.MethodGet, "/api/favorites/4", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"title":"Plank"`)

	status, body = api.do(http.MethodGet, "/api/exercises?page=1&limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Cards []struct {
			ID         int  `json:"id"`
			IsFavorite bool `json:"isFavorite"`
		} `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Cards, 5)
	for _, c := range page.Cards {
		assert.Equal(t, c.ID == 4, c.IsFavorite, "exercise %d", c.ID)
	}

	status, _ = api.do(http.MethodDelete, "/api/favorites", nil)
	assert.Equal(t, http.StatusBadRequest, status, "clearing needs confirm=true")

	status, _ = api.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_BearerToken(t *testing.T) {
	ts := httptest.NewServer(newServer(t).Handler())
	defer ts.Close()
	api := &apiClient{t: t, base: ts.URL, http: ts.Client()}

	status, body := api.do(http.MethodPost, "/api/auth/register", map[string]any{
		"username": "bob", "email": "bob@x.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotEmpty(t, res.Token)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/favorites/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), "every response carries its request id")
}

func TestServer_ProfileRoutes(t *testing.T) {
	ts := httptest.NewServer(newServer(t).Handler())
	defer ts.Close()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar
	api := &apiClient{t: t, base: ts.URL, http: client}

	status, _ := api.do(http.MethodPost, "/api/auth/register", map[string]any{
		"username": "carol", "email": "carol@x.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := api.do(http.MethodPut, "/api/profile", map[string]any{"displayName": "Carol C"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"displayName":"Carol C"`)

	status, body = api.do(http.MethodGet, "/api/profile/avatar", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), `"isDefault":true`))

	status, _ = api.do(http.MethodDelete, "/api/profile", map[string]any{"password": "secret1"})
	require.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(http.MethodPost, "/api/auth/login", map[string]any{"identifier": "carol", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv := newServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
