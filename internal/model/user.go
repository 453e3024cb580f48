// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// Theme values accepted by Preferences.Theme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// User is a registered account: credentials plus profile.
//
// JSON NAMES:
// The field names are the camelCase names the records were originally
// persisted under ("maxSports_users"), so an exported legacy blob decodes
// straight into []User without a translation layer.
//
// WHY Password string?
// It holds the stored digest, never the plaintext. New records get a bcrypt
// hash; records imported from legacy data may still carry the legacy digest
// until their owner's next successful login re-hashes it.
//
// WHY omitzero ON THE TIMESTAMPS?
// lastLoginAt and passwordChangedAt are absent until the first login /
// password change. omitzero keeps the zero time.Time out of the JSON instead
// of writing "0001-01-01T00:00:00Z".
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Password          string    `json:"password"`
	Phone             string    `json:"phone"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt,omitzero"`
	LastLoginAt       time.Time `json:"lastLoginAt,omitzero"`
	PasswordChangedAt time.Time `json:"passwordChangedAt,omitzero"`
	IsActive          bool      `json:"isActive"`
	Profile           Profile   `json:"profile"`
}

// Profile is the user-editable part of a User.
type Profile struct {
	Avatar         *string     `json:"avatar"` // data URI, nil when unset
	DisplayName    string      `json:"displayName"`
	Bio            string      `json:"bio"`
	FavoritesCount int         `json:"favoritesCount"`
	Preferences    Preferences `json:"preferences"`
}

// Preferences are the per-user notification and display settings.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	Newsletter    bool   `json:"newsletter"`
	Theme         string `json:"theme,omitempty"`
}

// EffectiveTheme returns the theme to apply; records written before themes
// existed have an empty value and fall back to auto.
func (p Preferences) EffectiveTheme() string {
	if p.Theme == "" {
		return ThemeAuto
	}
	return p.Theme
}

// Matches reports whether identifier equals the username or the email,
// ignoring case.
func (u *User) Matches(identifier string) bool {
	return strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier)
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	return u.Username
}

// PublicUser is the view of a User returned by the API: everything except
// the password digest.
type PublicUser struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt,omitzero"`
	LastLoginAt       time.Time `json:"lastLoginAt,omitzero"`
	PasswordChangedAt time.Time `json:"passwordChangedAt,omitzero"`
	IsActive          bool      `json:"isActive"`
	Profile           Profile   `json:"profile"`
}

// Public strips the password digest.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Phone:             u.Phone,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
		PasswordChangedAt: u.PasswordChangedAt,
		IsActive:          u.IsActive,
		Profile:           u.Profile,
	}
}
