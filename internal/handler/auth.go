package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

// AuthHandler manages registration, login and the token cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create the account, start a session, set the cookie
//   - HandleLogin          → check credentials, start a session, set the cookie
//   - HandleLogout         → end the session and clear the cookie
//   - HandleMe             → return the logged-in user
//   - HandleForgotPassword → start a password reset
//
// REMEMBER-ME AND THE COOKIE:
// With remember-me the session is durable and the cookie lives as long as
// the token. Without it the cookie has no Max-Age and dies with the
// browser, and the session dies with the server process.
type AuthHandler struct {
	auth          *service.AuthService
	tokenTTL      time.Duration
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, tokenTTL time.Duration, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		tokenTTL:      tokenTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
	RememberMe      bool   `json:"rememberMe"`
}

// LoginRequest is the body of POST /api/auth/login. Identifier is a
// username or an email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// AuthResponse is returned by register and login. The token is also set as
// an HttpOnly cookie; it is in the body for clients that send it as a
// Bearer header instead.
type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /api/auth/register → 201 AuthResponse
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
	}, req.RememberMe)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, res)
	writeJSON(w, http.StatusCreated, AuthResponse{User: res.User.Public(), Token: res.Token})
}

// HandleLogin logs a user in.
//
// HTTP: POST /api/auth/login → 200 AuthResponse, 401 on bad credentials
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Identifier, req.Password, req.RememberMe)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, res)
	writeJSON(w, http.StatusOK, AuthResponse{User: res.User.Public(), Token: res.Token})
}

// HandleLogout ends the session. It needs no authentication: logging out
// twice is fine.
//
// HTTP: POST /api/auth/logout → 204
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	auth.ClearTokenCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the logged-in user.
//
// HTTP: GET /api/auth/me → 200 PublicUser
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandleForgotPassword answers with the same notice whether or not the
// email is registered.
//
// HTTP: POST /api/auth/forgot-password {"email": "..."} → 200 MessageResponse
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	notice, err := h.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: notice})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, res *service.AuthResult) {
	var maxAge time.Duration
	if res.RememberMe {
		maxAge = h.tokenTTL
	}
	auth.SetTokenCookie(w, res.Token, maxAge, h.secureCookies)
}
