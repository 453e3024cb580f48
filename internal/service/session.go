package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/storage"
)

// SESSION STATES:
//
//	LoggedOut ──Login(remember=true)──▶ LoggedIn(durable)
//	LoggedOut ──Login(remember=false)─▶ LoggedIn(ephemeral)
//	LoggedIn(*) ──Logout──▶ LoggedOut
//
// The session is a full copy of the user record stored under
// "maxSports_currentUser" in ONE of the two scopes. A durable session also
// needs the "maxSports_rememberMe" flag in the durable scope; without it a
// durable record is ignored. There is no expiry.
//
// The scopes handed to the SessionManager are expected to be signing
// wrappers (storage.Signed), so a record edited by hand reads as absent.

// Session is the result of Restore.
type Session struct {
	User *model.User  // nil when logged out
	Kind storage.Kind // meaningful only when LoggedIn
}

// LoggedIn reports whether a user is logged in.
func (s Session) LoggedIn() bool { return s.User != nil }

const rememberMeValue = "true"

// SessionManager tracks the current user across the two storage scopes.
type SessionManager struct {
	scopes storage.Scopes
	logger *slog.Logger
}

func NewSessionManager(scopes storage.Scopes, logger *slog.Logger) *SessionManager {
	return &SessionManager{scopes: scopes, logger: logger}
}

// Login makes user the current user. With rememberMe the session goes to
// the durable scope and survives a restart; otherwise it lives in the
// ephemeral scope and any durable session is removed.
func (m *SessionManager) Login(ctx context.Context, user *model.User, rememberMe bool) error {
	if user == nil || user.ID == "" {
		return errors.New("service/session: cannot log in without a user")
	}

	durable, ephemeral := m.scopes.Durable, m.scopes.Ephemeral
	if rememberMe {
		if err := storage.SetJSON(ctx, durable, storage.KeyCurrentUser, user); err != nil {
			return fmt.Errorf("service/session: writing durable session: %w", err)
		}
		if err := durable.Set(ctx, storage.KeyRememberMe, []byte(rememberMeValue)); err != nil {
			return fmt.Errorf("service/session: setting remember-me: %w", err)
		}
		if err := ephemeral.Clear(ctx, storage.KeyCurrentUser); err != nil {
			return fmt.Errorf("service/session: clearing ephemeral session: %w", err)
		}
	} else {
		if err := storage.SetJSON(ctx, ephemeral, storage.KeyCurrentUser, user); err != nil {
			return fmt.Errorf("service/session: writing ephemeral session: %w", err)
		}
		if err := durable.Clear(ctx, storage.KeyRememberMe); err != nil {
			return fmt.Errorf("service/session: clearing remember-me: %w", err)
		}
		if err := durable.Clear(ctx, storage.KeyCurrentUser); err != nil {
			return fmt.Errorf("service/session: clearing durable session: %w", err)
		}
	}

	m.logger.Info("session started",
		slog.String("userID", user.ID),
		slog.Bool("rememberMe", rememberMe),
	)
	return nil
}

// Restore returns the current session: the durable one when both the
// record and the remember-me flag are present, else the ephemeral one,
// else a logged-out Session.
func (m *SessionManager) Restore(ctx context.Context) (Session, error) {
	durable := m.scopes.Durable

	flag, err := storage.GetString(ctx, durable, storage.KeyRememberMe)
	if err != nil {
		return Session{}, fmt.Errorf("service/session: reading remember-me: %w", err)
	}
	if flag == rememberMeValue {
		user, err := m.read(ctx, storage.Durable)
		if err != nil {
			return Session{}, err
		}
		if user != nil {
			return Session{User: user, Kind: storage.Durable}, nil
		}
	}

	user, err := m.read(ctx, storage.Ephemeral)
	if err != nil {
		return Session{}, err
	}
	if user != nil {
		return Session{User: user, Kind: storage.Ephemeral}, nil
	}
	return Session{}, nil
}

// read decodes the session record of one scope. An undecodable record is
// cleared and reported as absent.
func (m *SessionManager) read(ctx context.Context, kind storage.Kind) (*model.User, error) {
	scope := m.scopes.Pick(kind)

	var user model.User
	found, err := storage.GetJSON(ctx, scope, storage.KeyCurrentUser, &user)
	if errors.Is(err, storage.ErrCorrupt) {
		m.logger.Warn("discarding unreadable session",
			slog.String("scope", kind.String()),
			slog.String("error", err.Error()),
		)
		if clearErr := scope.Clear(ctx, storage.KeyCurrentUser); clearErr != nil {
			return nil, fmt.Errorf("service/session: clearing %s session: %w", kind, clearErr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service/session: reading %s session: %w", kind, err)
	}
	if !found || user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// CurrentUserID returns the id of the logged-in user, "" when logged out.
// It satisfies auth.SessionLookup.
func (m *SessionManager) CurrentUserID(ctx context.Context) (string, error) {
	sess, err := m.Restore(ctx)
	if err != nil || !sess.LoggedIn() {
		return "", err
	}
	return sess.User.ID, nil
}

// Logout clears both session records and the remember-me flag.
func (m *SessionManager) Logout(ctx context.Context) error {
	var errs []error
	for _, kind := range []storage.Kind{storage.Durable, storage.Ephemeral} {
		if err := m.scopes.Pick(kind).Clear(ctx, storage.KeyCurrentUser); err != nil {
			errs = append(errs, fmt.Errorf("service/session: clearing %s session: %w", kind, err))
		}
	}
	if err := m.scopes.Durable.Clear(ctx, storage.KeyRememberMe); err != nil {
		errs = append(errs, fmt.Errorf("service/session: clearing remember-me: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.logger.Info("session ended")
	return nil
}

// Refresh re-writes the session copy after user has changed, keeping the
// scope it is in. It does nothing when nobody is logged in or the session
// belongs to another user.
func (m *SessionManager) Refresh(ctx context.Context, user *model.User) error {
	sess, err := m.Restore(ctx)
	if err != nil {
		return err
	}
	if !sess.LoggedIn() || sess.User.ID != user.ID {
		return nil
	}

	if err := storage.SetJSON(ctx, m.scopes.Pick(sess.Kind), storage.KeyCurrentUser, user); err != nil {
		return fmt.Errorf("service/session: refreshing %s session: %w", sess.Kind, err)
	}
	return nil
}
