package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/listing"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/repository"
)

// RecentWindow is how far back FavoriteStats.Recent looks.
const RecentWindow = 7 * 24 * time.Hour

// ErrNothingToExport is returned by Export when the user has no favorites.
// It wraps apperror.ErrNotFound.
var ErrNothingToExport = &apperror.AppError{
	Err:     apperror.ErrNotFound,
	Message: "no favorites to export",
}

// Notices returned by Add when nothing was added.
const (
	NoticeNotLoggedIn     = "please log in first"
	NoticeAlreadyFavorite = "this exercise is already in your favorites"
)

// FavoritesService owns the favorites blob ("maxSports_favorites").
//
// After every mutation the owner's profile.favoritesCount is updated in the
// credential store and the session copy is refreshed, so the count shown
// from the session never goes stale.
type FavoritesService struct {
	mu       sync.Mutex
	repo     repository.FavoriteRepository
	users    *CredentialStore
	sessions *SessionManager
	logger   *slog.Logger
	now      func() time.Time
}

func NewFavoritesService(
	repo repository.FavoriteRepository,
	users *CredentialStore,
	sessions *SessionManager,
	logger *slog.Logger,
) *FavoritesService {
	return &FavoritesService{
		repo:     repo,
		users:    users,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// IsFavorite reports whether exerciseID is in userID's favorites.
func (s *FavoritesService) IsFavorite(ctx context.Context, userID string, exerciseID int) (bool, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return indexOf(list, exerciseID) >= 0, nil
}

// Add snapshots card into userID's favorites. It soft-fails, returning
// false and a notice, when no user is given or the exercise is already a
// favorite.
func (s *FavoritesService) Add(ctx context.Context, userID string, card model.ExerciseCard) (bool, string, error) {
	if userID == "" {
		return false, NoticeNotLoggedIn, nil
	}

	added := false
	err := s.mutate(ctx, userID, func(list []model.FavoriteEntry) ([]model.FavoriteEntry, error) {
		if indexOf(list, card.ID) >= 0 {
			return list, nil
		}
		added = true
		return append(list, model.FavoriteEntry{ExerciseCard: card, AddedAt: s.now().UTC()}), nil
	})
	if err != nil {
		return false, "", err
	}
	if !added {
		return false, NoticeAlreadyFavorite, nil
	}

	s.logger.Info("favorite added",
		slog.String("userID", userID),
		slog.Int("exerciseID", card.ID),
	)
	return true, "", nil
}

// Remove deletes exerciseID from userID's favorites, or returns
// apperror.ErrNotFound when it is not there.
func (s *FavoritesService) Remove(ctx context.Context, userID string, exerciseID int) error {
	err := s.mutate(ctx, userID, func(list []model.FavoriteEntry) ([]model.FavoriteEntry, error) {
		i := indexOf(list, exerciseID)
		if i < 0 {
			return nil, apperror.NotFound("favorite", strconv.Itoa(exerciseID))
		}
		return slices.Delete(list, i, i+1), nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("favorite removed",
		slog.String("userID", userID),
		slog.Int("exerciseID", exerciseID),
	)
	return nil
}

// Toggle adds card when it is not a favorite and removes it when it is.
// It returns whether the exercise is a favorite afterwards.
func (s *FavoritesService) Toggle(ctx context.Context, userID string, card model.ExerciseCard) (bool, error) {
	if userID == "" {
		return false, apperror.Unauthorized(NoticeNotLoggedIn)
	}

	var nowFavorite bool
	err := s.mutate(ctx, userID, func(list []model.FavoriteEntry) ([]model.FavoriteEntry, error) {
		if i := indexOf(list, card.ID); i >= 0 {
			nowFavorite = false
			return slices.Delete(list, i, i+1), nil
		}
		nowFavorite = true
		return append(list, model.FavoriteEntry{ExerciseCard: card, AddedAt: s.now().UTC()}), nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("favorite toggled",
		slog.String("userID", userID),
		slog.Int("exerciseID", card.ID),
		slog.Bool("favorite", nowFavorite),
	)
	return nowFavorite, nil
}

// List returns userID's favorites in stored (insertion) order.
func (s *FavoritesService) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	all, err := s.repo.LoadFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/favorites: loading favorites: %w", err)
	}
	list := all[userID]
	if list == nil {
		list = []model.FavoriteEntry{}
	}
	return list, nil
}

// Query returns userID's favorites filtered and sorted by q. Without a sort
// key the newest favorite comes first.
func (s *FavoritesService) Query(ctx context.Context, userID string, q listing.Query) ([]model.FavoriteEntry, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if q.Sort == "" {
		q.Sort = listing.SortAddedAt
		if q.Order == "" {
			q.Order = listing.OrderDesc
		}
	}
	return listing.Apply(list, q), nil
}

// Get returns one favorite, or apperror.ErrNotFound.
func (s *FavoritesService) Get(ctx context.Context, userID string, exerciseID int) (*model.FavoriteEntry, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, exerciseID)
	if i < 0 {
		return nil, apperror.NotFound("favorite", strconv.Itoa(exerciseID))
	}
	return &list[i], nil
}

// Search returns the favorites matching query (title, level, equipment or
// tag, case-insensitive).
func (s *FavoritesService) Search(ctx context.Context, userID, query string) ([]model.FavoriteEntry, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return listing.Filter(list, query, ""), nil
}

// ByTags returns the favorites carrying at least one of tags. No tags
// means no filter: every favorite is returned.
func (s *FavoritesService) ByTags(ctx context.Context, userID string, tags []string) ([]model.FavoriteEntry, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return list, nil
	}
	out := make([]model.FavoriteEntry, 0, len(list))
	for _, f := range list {
		if f.HasAnyTag(tags) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Stats aggregates userID's favorites. Recent holds the entries added within
// RecentWindow, newest first. An entry added exactly RecentWindow ago still
// counts.
func (s *FavoritesService) Stats(ctx context.Context, userID string) (*model.FavoriteStats, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.FavoriteStats{
		Total:       len(list),
		ByLevel:     make(map[string]int),
		ByEquipment: make(map[string]int),
		ByTag:       make(map[string]int),
		Recent:      []model.FavoriteEntry{},
	}

	cutoff := s.now().Add(-RecentWindow)
	for _, f := range list {
		if f.Level != "" {
			stats.ByLevel[f.Level]++
		}
		if f.Equipment != "" {
			stats.ByEquipment[f.Equipment]++
		}
		for _, tag := range f.Tags {
			stats.ByTag[tag]++
		}
		if !f.AddedAt.Before(cutoff) {
			stats.Recent = append(stats.Recent, f)
		}
	}
	listing.SortItems(stats.Recent, listing.SortAddedAt, listing.OrderDesc)
	return stats, nil
}

// ClearAll removes every favorite of userID and returns how many there
// were. Callers confirm with the user first.
func (s *FavoritesService) ClearAll(ctx context.Context, userID string) (int, error) {
	removed := 0
	err := s.mutate(ctx, userID, func(list []model.FavoriteEntry) ([]model.FavoriteEntry, error) {
		removed = len(list)
		return nil, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("favorites cleared",
		slog.String("userID", userID),
		slog.Int("removed", removed),
	)
	return removed, nil
}

// Export returns a snapshot of userID's favorites for download, or
// ErrNothingToExport when there are none.
func (s *FavoritesService) Export(ctx context.Context, userID string) (*model.FavoritesExport, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNothingToExport
	}

	return &model.FavoritesExport{
		ExportedAt: s.now().UTC(),
		User: model.ExportUser{
			Username:    user.Username,
			DisplayName: user.Profile.DisplayName,
		},
		Favorites: list,
		Count:     len(list),
	}, nil
}

// Import merges a legacy favorites blob. Entries for exercises a user already
// has are skipped. It returns how many entries were added.
func (s *FavoritesService) Import(ctx context.Context, legacy model.FavoritesByUser) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadFavorites(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/favorites: loading favorites: %w", err)
	}

	added := 0
	touched := make([]string, 0, len(legacy))
	for userID, entries := range legacy {
		list := all[userID]
		before := len(list)
		for _, e := range entries {
			if indexOf(list, e.ID) < 0 {
				list = append(list, e)
			}
		}
		if len(list) > before {
			all[userID] = list
			added += len(list) - before
			touched = append(touched, userID)
		}
	}
	if added == 0 {
		return 0, nil
	}

	if err := s.repo.SaveFavorites(ctx, all); err != nil {
		return 0, fmt.Errorf("service/favorites: saving favorites: %w", err)
	}
	for _, userID := range touched {
		s.syncCount(ctx, userID, len(all[userID]))
	}

	s.logger.Info("favorites imported", slog.Int("count", added))
	return added, nil
}

// DeleteUser drops every favorite of userID without touching the user
// record. Account deletion uses it after the record is gone.
func (s *FavoritesService) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.LoadFavorites(ctx)
	if err != nil {
		return fmt.Errorf("service/favorites: loading favorites: %w", err)
	}
	if _, ok := all[userID]; !ok {
		return nil
	}
	delete(all, userID)
	if err := s.repo.SaveFavorites(ctx, all); err != nil {
		return fmt.Errorf("service/favorites: saving favorites: %w", err)
	}
	return nil
}

// mutate runs one read-modify-write cycle on userID's list under the lock
// and then syncs the favorites count. If fn fails nothing is saved.
func (s *FavoritesService) mutate(ctx context.Context, userID string, fn func([]model.FavoriteEntry) ([]model.FavoriteEntry, error)) error {
	if userID == "" {
		return apperror.Unauthorized(NoticeNotLoggedIn)
	}

	s.mu.Lock()
	all, err := s.repo.LoadFavorites(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("service/favorites: loading favorites: %w", err)
	}

	before := all[userID]
	list, err := fn(slices.Clone(before))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !sameIDs(list, before) {
		if len(list) == 0 {
			delete(all, userID)
		} else {
			all[userID] = list
		}
		if err := s.repo.SaveFavorites(ctx, all); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("service/favorites: saving favorites: %w", err)
		}
	}
	s.mu.Unlock()

	s.syncCount(ctx, userID, len(list))
	return nil
}

// syncCount writes the favorites count into the user record and refreshes
// the session copy. A failure here does not undo the favorites change; it is
// logged and the count is corrected by the next mutation.
func (s *FavoritesService) syncCount(ctx context.Context, userID string, count int) {
	user, err := s.users.Update(ctx, userID, func(u *model.User) error {
		u.Profile.FavoritesCount = count
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("failed to sync favorites count",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if err := s.sessions.Refresh(ctx, user); err != nil {
		s.logger.Warn("failed to refresh session after favorites change",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}
}

func indexOf(list []model.FavoriteEntry, exerciseID int) int {
	return slices.IndexFunc(list, func(f model.FavoriteEntry) bool { return f.ID == exerciseID })
}

func sameIDs(a, b []model.FavoriteEntry) bool {
	return slices.EqualFunc(a, b, func(x, y model.FavoriteEntry) bool { return x.ID == y.ID })
}
