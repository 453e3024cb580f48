package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// TokenCookie is the name of the HttpOnly cookie carrying the local API JWT.
const TokenCookie = "token"

// contextKey is package-private so no other package can read or shadow the
// values this package stores in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// SessionLookup reports which user the stored session belongs to.
// It returns "" when nobody is logged in.
type SessionLookup interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// RequireAuth rejects a request with 401 unless it carries a valid token
// (cookie or Authorization: Bearer) whose subject is the user of the current
// session. On success the user id is stored in the request context.
//
// WHY CHECK THE SESSION TOO?
// A JWT stays valid until it expires. The session is what logout clears.
// Requiring both means "logged out" wins the moment Logout runs.
func RequireAuth(tokens *TokenService, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				unauthorized(w, "valid authentication required")
				return
			}

			current, err := sessions.CurrentUserID(r.Context())
			if err != nil || current == "" || current != userID {
				unauthorized(w, "session has ended, please log in again")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth stores the user id in the context when the request carries a
// valid token for the current session, and lets every request through.
// The catalog uses it to mark favorites for logged-in callers only.
func OptionalAuth(tokens *TokenService, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				if current, err := sessions.CurrentUserID(r.Context()); err == nil && current == userID {
					r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the user id set by RequireAuth / OptionalAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of ctx carrying userID, as RequireAuth would.
// Handler tests use it to skip the token round trip.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// SetTokenCookie writes the token cookie. maxAge 0 makes it a browser-session
// cookie, which is what a login without remember-me gets.
func SetTokenCookie(w http.ResponseWriter, token string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the token cookie.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
