package model

import "time"

// FavoriteEntry is a user's saved snapshot of an exercise card. The card is
// copied at the time it was added and never re-fetched.
//
// The embedded ExerciseCard is flattened by encoding/json, which gives the
// same object shape the favorites blob has always had:
//
//	{"id":42,"title":"Squat",...,"addedAt":"2025-01-02T03:04:05Z"}
type FavoriteEntry struct {
	ExerciseCard
	AddedAt time.Time `json:"addedAt"`
}

// FavoritesByUser is the persisted favorites blob: user id to that user's
// ordered favorites. At most one entry per exercise id within a list.
type FavoritesByUser map[string][]FavoriteEntry

// FavoriteStats aggregates one user's favorites.
type FavoriteStats struct {
	Total       int             `json:"total"`
	ByLevel     map[string]int  `json:"byLevel"`
	ByEquipment map[string]int  `json:"byEquipment"`
	ByTag       map[string]int  `json:"byTag"`
	Recent      []FavoriteEntry `json:"recent"`
}

// FavoritesExport is the downloadable snapshot of a user's favorites.
type FavoritesExport struct {
	ExportedAt time.Time       `json:"exportedAt"`
	User       ExportUser      `json:"user"`
	Favorites  []FavoriteEntry `json:"favorites"`
	Count      int             `json:"count"`
}

// ExportUser identifies the owner of an export.
type ExportUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Added returns when the entry was saved. The listing package sorts on it.
func (f FavoriteEntry) Added() time.Time { return f.AddedAt }
