// Package service contains the business logic of the application.
//
// THE LAYERS:
//
//	Handler / CLI command  → parse input, render output
//	Service                → validate, enforce rules, orchestrate
//	Repository             → load/save the persisted blobs
//
// Services take primitives and domain types, never *http.Request, so the
// same rules run behind the HTTP API and behind the cobra commands.
//
// WHY A MUTEX IN EVERY STORE?
// Each collection is persisted as ONE blob: every mutation is
// load → modify → save of the whole value. Two concurrent requests doing
// that would silently drop one write. Each service serializes its own
// read-modify-write cycles; writers in another process are still
// last-writer-wins.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/repository"
)

// Validation limits for registration.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the something@something.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// RegisterInput is what a new account is created from.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
}

// CredentialStore owns the user collection ("maxSports_users").
type CredentialStore struct {
	mu        sync.Mutex
	repo      repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

func NewCredentialStore(repo repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// Register validates in, checks uniqueness and appends a new active user.
//
// Uniqueness of username and email is case-insensitive and only checked
// here: a later email edit is not re-checked.
func (s *CredentialStore) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	// bcrypt is slow; hash before taking the lock.
	digest, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/credentials: loading users: %w", err)
	}

	for i := range users {
		if strings.EqualFold(users[i].Username, in.Username) {
			return nil, apperror.Conflict("username", in.Username)
		}
		if strings.EqualFold(users[i].Email, in.Email) {
			return nil, apperror.Conflict("email", in.Email)
		}
	}

	now := s.now().UTC()
	user := model.User{
		ID:        "user_" + xid.New().String(),
		Username:  in.Username,
		Email:     in.Email,
		Password:  digest,
		Phone:     in.Phone,
		CreatedAt: now,
		IsActive:  true,
		Profile: model.Profile{
			DisplayName: in.Username,
			Preferences: model.Preferences{
				Notifications: true,
				Newsletter:    true,
				Theme:         model.ThemeAuto,
			},
		},
	}

	if err := s.repo.SaveUsers(ctx, append(users, user)); err != nil {
		return nil, fmt.Errorf("service/credentials: saving users: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return &user, nil
}

func validateRegistration(in RegisterInput) error {
	if n := utf8.RuneCountInString(in.Username); n < MinUsernameLength || n > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength))
	}
	if !ValidEmail(in.Email) {
		return apperror.ValidationFailed("email", "please enter a valid email address")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if in.Password != in.ConfirmPassword {
		return apperror.ValidationFailed("confirmPassword", "passwords do not match")
	}
	return nil
}

// errBadCredentials covers both "no such user" and "wrong password"; the
// caller cannot tell which accounts exist.
func errBadCredentials() error {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: "invalid username/email or password",
	}
}

// FindByCredentials returns the user whose username or email equals
// identifier (ignoring case) and whose stored digest verifies password.
//
// A user still carrying a legacy digest has it replaced by a bcrypt hash on
// the first successful match.
func (s *CredentialStore) FindByCredentials(ctx context.Context, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, errBadCredentials()
	}

	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var found *model.User
	for i := range users {
		if users[i].Matches(identifier) {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return nil, errBadCredentials()
	}

	needsRehash, err := s.passwords.Check(found.Password, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, errBadCredentials()
		}
		return nil, fmt.Errorf("service/credentials: checking password: %w", err)
	}

	if needsRehash {
		if err := s.upgradeDigest(ctx, found, password); err != nil {
			// The login itself is valid; the upgrade is retried next time.
			s.logger.Warn("failed to upgrade legacy password digest",
				slog.String("userID", found.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return found, nil
}

func (s *CredentialStore) upgradeDigest(ctx context.Context, user *model.User, password string) error {
	digest, err := s.passwords.Hash(password)
	if err != nil {
		return err
	}
	updated, err := s.Update(ctx, user.ID, func(u *model.User) error {
		u.Password = digest
		return nil
	})
	if err != nil {
		return err
	}
	*user = *updated

	s.logger.Info("legacy password digest upgraded", slog.String("userID", user.ID))
	return nil
}

// FindByID returns the user with the given id, or apperror.ErrNotFound.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

// FindByEmail returns the user with the given email (ignoring case), or
// apperror.ErrNotFound.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no account with that email"}
}

// List returns every user record.
func (s *CredentialStore) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/credentials: loading users: %w", err)
	}
	return users, nil
}

// Save replaces the record with user.ID and persists the whole collection.
// Last writer wins.
func (s *CredentialStore) Save(ctx context.Context, user *model.User) error {
	_, err := s.Update(ctx, user.ID, func(u *model.User) error {
		*u = *user
		return nil
	})
	return err
}

// Update applies fn to the stored record of id and persists the collection,
// all under the store's lock. If fn returns an error nothing is saved.
func (s *CredentialStore) Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/credentials: loading users: %w", err)
	}

	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperror.NotFound("user", id)
	}

	if err := fn(&users[idx]); err != nil {
		return nil, err
	}
	// fn must not re-key the record.
	users[idx].ID = id

	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("service/credentials: saving users: %w", err)
	}
	updated := users[idx]
	return &updated, nil
}

// Delete removes the user with id.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("service/credentials: loading users: %w", err)
	}

	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return apperror.NotFound("user", id)
	}

	if err := s.repo.SaveUsers(ctx, kept); err != nil {
		return fmt.Errorf("service/credentials: saving users: %w", err)
	}
	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

// Import merges records exported from the old browser app into the collection.
// Records whose id, username or email already exists are skipped. It returns
// how many records were added.
//
// Imported digests are kept as they are: legacy digests keep working and
// are upgraded at their owner's next login.
func (s *CredentialStore) Import(ctx context.Context, legacy []model.User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/credentials: loading users: %w", err)
	}

	taken := func(u model.User) bool {
		for i := range users {
			if users[i].ID == u.ID ||
				strings.EqualFold(users[i].Username, u.Username) ||
				strings.EqualFold(users[i].Email, u.Email) {
				return true
			}
		}
		return false
	}

	added := 0
	for _, u := range legacy {
		if u.ID == "" || u.Username == "" || taken(u) {
			s.logger.Warn("skipping imported user",
				slog.String("userID", u.ID),
				slog.String("username", u.Username),
			)
			continue
		}
		if u.Profile.DisplayName == "" {
			u.Profile.DisplayName = u.Username
		}
		users = append(users, u)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return 0, fmt.Errorf("service/credentials: saving users: %w", err)
	}

	s.logger.Info("users imported", slog.Int("count", added))
	return added, nil
}
