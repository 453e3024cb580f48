// Package repository declares the persistence interfaces the services
// depend on. Implementations live in sub-packages (blob).
package repository

import (
	"context"

	"github.com/sakif/maxsports/internal/model"
)

// UserRepository persists the whole user collection at once.
type UserRepository interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
}

// FavoriteRepository persists every user's favorites as one mapping.
type FavoriteRepository interface {
	LoadFavorites(ctx context.Context) (model.FavoritesByUser, error)
	SaveFavorites(ctx context.Context, favorites model.FavoritesByUser) error
}
