package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/maxsports/internal/model"
)

// ImportResult counts what ImportLegacy added.
type ImportResult struct {
	Users     int `json:"users"`
	Favorites int `json:"favorites"`
}

// ImportLegacy merges the "maxSports_users" and "maxSports_favorites" blobs
// exported from the browser app. Either may be nil. Users are imported first
// so the favorites count of an imported owner is kept in step.
func (a *App) ImportLegacy(ctx context.Context, usersJSON, favoritesJSON []byte) (ImportResult, error) {
	var res ImportResult

	if len(usersJSON) > 0 {
		var users []model.User
		if err := json.Unmarshal(usersJSON, &users); err != nil {
			return res, fmt.Errorf("app: decoding users export: %w", err)
		}
		n, err := a.Users.Import(ctx, users)
		if err != nil {
			return res, err
		}
		res.Users = n
	}

	if len(favoritesJSON) > 0 {
		var favorites model.FavoritesByUser
		if err := json.Unmarshal(favoritesJSON, &favorites); err != nil {
			return res, fmt.Errorf("app: decoding favorites export: %w", err)
		}
		n, err := a.Favorites.Import(ctx, favorites)
		if err != nil {
			return res, err
		}
		res.Favorites = n
	}

	a.Logger.Info("legacy data imported",
		slog.Int("users", res.Users),
		slog.Int("favorites", res.Favorites),
	)
	return res, nil
}
