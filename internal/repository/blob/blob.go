// Package blob implements the repositories as JSON blobs in a storage scope.
//
// Each collection is one value under one key:
//
//	maxSports_users     → [ {user}, {user}, ... ]
//	maxSports_favorites → { "<userId>": [ {favorite}, ... ], ... }
//
// A load reads and decodes the whole value; a save encodes and writes the
// whole value. There are no partial updates and no locking here: callers
// that need read-modify-write atomicity serialize it themselves.
package blob

import (
	"context"
	"fmt"

	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/repository"
	"github.com/sakif/maxsports/internal/storage"
)

// Store implements both repositories over one scope.
type Store struct {
	scope storage.Scope
}

var (
	_ repository.UserRepository     = (*Store)(nil)
	_ repository.FavoriteRepository = (*Store)(nil)
)

func New(scope storage.Scope) *Store {
	return &Store{scope: scope}
}

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := storage.GetJSON(ctx, s.scope, storage.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("blob: loading users: %w", err)
	}
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	if err := storage.SetJSON(ctx, s.scope, storage.KeyUsers, users); err != nil {
		return fmt.Errorf("blob: saving users: %w", err)
	}
	return nil
}

// LoadFavorites never returns a nil map, so callers can assign into it.
func (s *Store) LoadFavorites(ctx context.Context) (model.FavoritesByUser, error) {
	favorites := model.FavoritesByUser{}
	if _, err := storage.GetJSON(ctx, s.scope, storage.KeyFavorites, &favorites); err != nil {
		return nil, fmt.Errorf("blob: loading favorites: %w", err)
	}
	if favorites == nil {
		// The stored value was JSON null.
		favorites = model.FavoritesByUser{}
	}
	return favorites, nil
}

func (s *Store) SaveFavorites(ctx context.Context, favorites model.FavoritesByUser) error {
	if err := storage.SetJSON(ctx, s.scope, storage.KeyFavorites, favorites); err != nil {
		return fmt.Errorf("blob: saving favorites: %w", err)
	}
	return nil
}
