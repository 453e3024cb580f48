package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/handler"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

func tokenCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates the account and sets a browser-session cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, newRequest(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
			Username:        "alice",
			Email:           "alice@x.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.NotContains(t, rr.Body.String(), `"password"`, "digest must never leave the server")

		res := decodeBody[handler.AuthResponse](t, rr)
		assert.Equal(t, "alice", res.User.Username)
		assert.Equal(t, "alice", res.User.Profile.DisplayName)
		assert.NotEmpty(t, res.Token)

		cookie := tokenCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, res.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Zero(t, cookie.MaxAge, "no remember-me: cookie dies with the browser")
	})

	t.Run("case-insensitive duplicate username is a conflict", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, newRequest(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
			Username:        "ALICE",
			Email:           "other@x.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, newRequest(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
			Username:        "bob",
			Email:           "not-an-email",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[handler.ErrorResponse](t, rr)
		assert.Equal(t, "email", body.Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, newRequest(t, http.MethodPost, "/api/auth/register", "", `{"username":`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_LoginLogoutMe(t *testing.T) {
	env := newTestEnv(t)
	env.registerAlice(t)

	t.Run("wrong password is 401", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, newRequest(t, http.MethodPost, "/api/auth/login", "", handler.LoginRequest{
			Identifier: "alice", Password: "nope",
		}))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("remember-me login by uppercase username", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, newRequest(t, http.MethodPost, "/api/auth/login", "", handler.LoginRequest{
			Identifier: "ALICE", Password: "secret1", RememberMe: true,
		}))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		cookie := tokenCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, int(env.app.Tokens.TTL().Seconds()), cookie.MaxAge)
	})

	t.Run("me returns the session user", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleMe(rr, newRequest(t, http.MethodGet, "/api/auth/me", "", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		me := decodeBody[model.PublicUser](t, rr)
		assert.Equal(t, "alice", me.Username)
		assert.False(t, me.LastLoginAt.IsZero())
	})

	t.Run("logout clears the session and the cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.auth.HandleLogout(rr, newRequest(t, http.MethodPost, "/api/auth/logout", "", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		cookie := tokenCookie(rr)
		require.NotNil(t, cookie)
		assert.Less(t, cookie.MaxAge, 0)

		rr = httptest.NewRecorder()
		env.auth.HandleMe(rr, newRequest(t, http.MethodGet, "/api/auth/me", "", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAlice(t)

	for _, email := range []string{"alice@x.com", "nobody@x.com"} {
		rr := httptest.NewRecorder()
		env.auth.HandleForgotPassword(rr, newRequest(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": email}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, service.ForgotPasswordNotice, decodeBody[handler.MessageResponse](t, rr).Message)
	}

	rr := httptest.NewRecorder()
	env.auth.HandleForgotPassword(rr, newRequest(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "broken"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
