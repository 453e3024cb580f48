package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/service"
)

// ProfileHandler lets the logged-in user edit their own record. Every route
// sits behind auth.RequireAuth.
type ProfileHandler struct {
	profiles      *service.ProfileService
	users         *service.CredentialStore
	secureCookies bool
	logger        *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, users *service.CredentialStore, secureCookies bool, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:      profiles,
		users:         users,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// ProfileRequest is the body of PUT /api/profile.
type ProfileRequest struct {
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Bio         string `json:"bio"`
}

// PreferencesRequest is the body of PUT /api/profile/preferences.
type PreferencesRequest struct {
	Notifications bool   `json:"notifications"`
	Newsletter    bool   `json:"newsletter"`
	Theme         string `json:"theme"`
}

// PasswordRequest is the body of PUT /api/profile/password.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AvatarResponse is the avatar to display. IsDefault is true for the
// generated initial-letter avatar.
type AvatarResponse struct {
	Avatar    string `json:"avatar"`
	IsDefault bool   `json:"isDefault"`
}

// HandleUpdate replaces the display name, phone and bio.
//
// HTTP: PUT /api/profile → 200 PublicUser
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, service.ProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Bio:         req.Bio,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandlePreferences replaces the notification flags and theme.
//
// HTTP: PUT /api/profile/preferences → 200 PublicUser
func (h *ProfileHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profiles.UpdatePreferences(r.Context(), userID, service.PreferencesInput{
		Notifications: req.Notifications,
		Newsletter:    req.Newsletter,
		Theme:         req.Theme,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandlePassword changes the password.
//
// HTTP: PUT /api/profile/password → 204
func (h *ProfileHandler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profiles.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetAvatar returns the avatar to display.
//
// HTTP: GET /api/profile/avatar → 200 AvatarResponse
func (h *ProfileHandler) HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvatarResponse{
		Avatar:    service.Avatar(user),
		IsDefault: user.Profile.Avatar == nil || *user.Profile.Avatar == "",
	})
}

// HandleSetAvatar stores an uploaded avatar, sent as an image data URI.
//
// HTTP: PUT /api/profile/avatar {"avatar": "data:image/png;base64,..."} → 200 AvatarResponse
func (h *ProfileHandler) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profiles.SetAvatar(r.Context(), userID, req.Avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvatarResponse{Avatar: service.Avatar(user)})
}

// HandleRemoveAvatar goes back to the generated avatar.
//
// HTTP: DELETE /api/profile/avatar → 200 AvatarResponse
func (h *ProfileHandler) HandleRemoveAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profiles.RemoveAvatar(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvatarResponse{Avatar: service.Avatar(user), IsDefault: true})
}

// HandleDelete deletes the account after checking the password, then
// clears the token cookie.
//
// HTTP: DELETE /api/profile {"password": "..."} → 204, 403 on a wrong password
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profiles.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	auth.ClearTokenCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}
