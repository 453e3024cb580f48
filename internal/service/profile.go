package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/avatar"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/sanitize"
)

// Profile field limits.
const (
	MaxDisplayNameLength = 30
	MaxBioLength         = 200
	MaxPhoneLength       = 20
)

// ProfileInput holds the editable profile text fields.
type ProfileInput struct {
	DisplayName string
	Phone       string
	Bio         string
}

// PreferencesInput holds the editable preferences.
type PreferencesInput struct {
	Notifications bool
	Newsletter    bool
	Theme         string
}

// ProfileService edits the current user's own record.
//
// Every change is written to the credential store and then copied into the
// session, which holds its own denormalized copy of the record.
type ProfileService struct {
	users     *CredentialStore
	sessions  *SessionManager
	favorites *FavoritesService
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

func NewProfileService(
	users *CredentialStore,
	sessions *SessionManager,
	favorites *FavoritesService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:     users,
		sessions:  sessions,
		favorites: favorites,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdateProfile replaces the display name, phone and bio. All three are
// stripped of markup; the display name must be 1-30 characters afterwards.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	name := sanitize.Text(in.DisplayName)
	phone := sanitize.Text(in.Phone)
	bio := sanitize.Text(in.Bio)

	if n := utf8.RuneCountInString(name); n == 0 || n > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName",
			fmt.Sprintf("display name must be 1-%d characters", MaxDisplayNameLength))
	}
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return nil, apperror.ValidationFailed("phone",
			fmt.Sprintf("phone must be %d characters or less", MaxPhoneLength))
	}

	return s.update(ctx, userID, "profile updated", func(u *model.User) error {
		u.Profile.DisplayName = name
		u.Phone = phone
		u.Profile.Bio = bio
		return nil
	})
}

// UpdatePreferences replaces the notification flags and the theme. An empty
// theme means auto.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, in PreferencesInput) (*model.User, error) {
	theme := strings.ToLower(strings.TrimSpace(in.Theme))
	switch theme {
	case "":
		theme = model.ThemeAuto
	case model.ThemeLight, model.ThemeDark, model.ThemeAuto:
	default:
		return nil, apperror.ValidationFailed("theme", "theme must be light, dark or auto")
	}

	return s.update(ctx, userID, "preferences updated", func(u *model.User) error {
		u.Profile.Preferences = model.Preferences{
			Notifications: in.Notifications,
			Newsletter:    in.Newsletter,
			Theme:         theme,
		}
		return nil
	})
}

// ChangePassword replaces the password after verifying the current one.
// The new password must be at least 6 characters, equal its confirmation
// and differ from the current one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	if current == "" {
		return apperror.ValidationFailed("currentPassword", "current password is required")
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return apperror.ValidationFailed("newPassword",
			fmt.Sprintf("new password must be at least %d characters", MinPasswordLength))
	}
	if next != confirm {
		return apperror.ValidationFailed("confirmPassword", "passwords do not match")
	}
	if next == current {
		return apperror.ValidationFailed("newPassword", "new password must differ from the current one")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.passwords.Check(user.Password, current); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return apperror.ValidationFailed("currentPassword", "current password is incorrect")
		}
		return fmt.Errorf("service/profile: checking password: %w", err)
	}

	digest, err := s.passwords.Hash(next)
	if err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}

	_, err = s.update(ctx, userID, "password changed", func(u *model.User) error {
		u.Password = digest
		u.PasswordChangedAt = s.now().UTC()
		return nil
	})
	return err
}

// SetAvatar stores dataURI as the user's avatar. It must be a base64 image
// data URI of at most 2 MiB decoded.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, dataURI string) (*model.User, error) {
	if err := avatar.Validate(dataURI); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, "avatar updated", func(u *model.User) error {
		u.Profile.Avatar = &dataURI
		return nil
	})
}

// RemoveAvatar goes back to the default avatar.
func (s *ProfileService) RemoveAvatar(ctx context.Context, userID string) (*model.User, error) {
	return s.update(ctx, userID, "avatar removed", func(u *model.User) error {
		u.Profile.Avatar = nil
		return nil
	})
}

// Avatar returns the avatar to show for user: the uploaded one, else the
// generated initial-letter avatar.
func Avatar(user *model.User) string {
	if user.Profile.Avatar != nil && *user.Profile.Avatar != "" {
		return *user.Profile.Avatar
	}
	return DefaultAvatar(user)
}

// DefaultAvatar renders the initial-letter avatar of user.
func DefaultAvatar(user *model.User) string {
	return avatar.Default(user.Name(), user.Username)
}

// DeleteAccount removes the user and their favorites and ends the session.
// The password must verify first.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.passwords.Check(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return apperror.Forbidden("password is incorrect")
		}
		return fmt.Errorf("service/profile: checking password: %w", err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.favorites.DeleteUser(ctx, userID); err != nil {
		s.logger.Warn("failed to delete favorites of deleted account",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}

	sess, err := s.sessions.Restore(ctx)
	if err != nil {
		return err
	}
	if sess.LoggedIn() && sess.User.ID == userID {
		if err := s.sessions.Logout(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

// update stamps updatedAt, saves, and refreshes the session copy.
func (s *ProfileService) update(ctx context.Context, userID, event string, fn func(*model.User) error) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized(NoticeNotLoggedIn)
	}

	user, err := s.users.Update(ctx, userID, func(u *model.User) error {
		if err := fn(u); err != nil {
			return err
		}
		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Refresh(ctx, user); err != nil {
		return nil, fmt.Errorf("service/profile: refreshing session: %w", err)
	}

	s.logger.Info(event, slog.String("userID", userID))
	return user, nil
}
