package service

// AuthService orchestrates the login flows on top of the stores:
//
//	AuthHandler / CLI  →  AuthService  →  CredentialStore (users blob)
//	                                   ↘  SessionManager  (current user)
//	                                   ↘  TokenService    (local API JWT)
//
// WHAT THIS SERVICE DOES NOT DO:
//   - It does NOT set cookies (that's the handler's job)
//   - It does NOT prompt for passwords (that's the CLI's job)
//   - It does NOT deliver reset links (that's the ResetNotifier's job)

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
)

// ForgotPasswordNotice is returned by ForgotPassword whether or not the
// address belongs to an account.
const ForgotPasswordNotice = "if that email is registered, a password reset link has been sent"

// ResetNotifier delivers a password reset token to its owner.
type ResetNotifier interface {
	SendReset(ctx context.Context, user *model.User, token string) error
}

// LogNotifier is the ResetNotifier used when no delivery channel is
// configured: it writes the token to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendReset(_ context.Context, user *model.User, token string) error {
	n.Logger.Info("password reset requested",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
		slog.String("resetToken", token),
	)
	return nil
}

// AuthResult bundles the logged-in user with the token issued for the local
// API, so a handler can set the cookie and respond in one step.
type AuthResult struct {
	User       *model.User
	Token      string
	RememberMe bool
}

// AuthService handles registration, login and logout.
type AuthService struct {
	users    *CredentialStore
	sessions *SessionManager
	tokens   *auth.TokenService
	notifier ResetNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(
	users *CredentialStore,
	sessions *SessionManager,
	tokens *auth.TokenService,
	notifier ResetNotifier,
	logger *slog.Logger,
) *AuthService {
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates the account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, rememberMe bool) (*AuthResult, error) {
	user, err := s.users.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, rememberMe)
}

// Login checks the credentials and starts a session. identifier is a
// username or an email, matched ignoring case.
func (s *AuthService) Login(ctx context.Context, identifier, password string, rememberMe bool) (*AuthResult, error) {
	user, err := s.users.FindByCredentials(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed", slog.String("identifier", identifier))
			return nil, apperror.Unauthorized(apperror.Message(err))
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account disabled")
	}
	return s.startSession(ctx, user, rememberMe)
}

func (s *AuthService) startSession(ctx context.Context, user *model.User, rememberMe bool) (*AuthResult, error) {
	user, err := s.users.Update(ctx, user.ID, func(u *model.User) error {
		u.LastLoginAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Login(ctx, user, rememberMe); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return &AuthResult{User: user, Token: token, RememberMe: rememberMe}, nil
}

// Logout ends the current session. Logging out while logged out is fine.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.Logout(ctx)
}

// Current returns the logged-in user, or apperror.ErrUnauthorized.
func (s *AuthService) Current(ctx context.Context) (*model.User, error) {
	sess, err := s.sessions.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.LoggedIn() {
		return nil, apperror.Unauthorized("not logged in")
	}
	return sess.User, nil
}

// ForgotPassword starts a password reset for email. The returned notice is
// the same whether or not the address is registered; a reset token is only
// generated and handed to the notifier when it is.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return "", apperror.ValidationFailed("email", "please enter a valid email address")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return ForgotPasswordNotice, nil
		}
		return "", err
	}

	token := uuid.NewString()
	if err := s.notifier.SendReset(ctx, user, token); err != nil {
		s.logger.Error("failed to send password reset",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}
	return ForgotPasswordNotice, nil
}
