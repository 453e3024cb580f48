package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/catalog"
	"github.com/sakif/maxsports/internal/listing"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

// FavoritesHandler serves the logged-in user's favorites. Every route sits
// behind auth.RequireAuth.
type FavoritesHandler struct {
	favorites *service.FavoritesService
	view      *catalog.View
	logger    *slog.Logger
	now       func() string
}

// NewFavoritesHandler creates a FavoritesHandler. view resolves a bare
// exercise id to its card and mirrors toggles to remote bookmarks.
func NewFavoritesHandler(favorites *service.FavoritesService, view *catalog.View, logger *slog.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favorites,
		view:      view,
		logger:    logger,
		now:       today,
	}
}

// AddResponse reports the outcome of POST /api/favorites. Added is false,
// with a notice, when the exercise was already a favorite.
type AddResponse struct {
	Added  bool   `json:"added"`
	Notice string `json:"notice,omitempty"`
}

// ToggleResponse reports whether the exercise is a favorite afterwards.
type ToggleResponse struct {
	ID         int  `json:"id"`
	IsFavorite bool `json:"isFavorite"`
}

// HandleList returns the favorites, filtered and sorted. Without a sort the
// newest comes first.
//
// tags (comma-separated, any of) and q (free text) are shortcuts that
// return the matches in stored order; tags wins when both are given.
//
// HTTP: GET /api/favorites?search=&category=&sort=addedAt|title|level&order=asc|desc
// HTTP: GET /api/favorites?tags=home,gym
// HTTP: GET /api/favorites?q=squat
func (h *FavoritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	var list []model.FavoriteEntry
	switch {
	case q.Has("tags"):
		list, err = h.favorites.ByTags(r.Context(), userID, splitTags(q.Get("tags")))
	case q.Has("q"):
		list, err = h.favorites.Search(r.Context(), userID, q.Get("q"))
	default:
		list, err = h.favorites.Query(r.Context(), userID, listing.Query{
			Search:   q.Get("search"),
			Category: q.Get("category"),
			Sort:     q.Get("sort"),
			Order:    q.Get("order"),
		})
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleAdd saves a card. The body is the card as the catalog returned it;
// a body with only an id is resolved through the catalog.
//
// HTTP: POST /api/favorites → 201 AddResponse, 200 when already a favorite
func (h *FavoritesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := h.readCard(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	added, notice, err := h.favorites.Add(r.Context(), userID, *card)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, AddResponse{Added: added, Notice: notice})
}

// HandleToggle flips a card in the favorites and mirrors the change to the
// remote bookmarks when that is enabled.
//
// HTTP: POST /api/favorites/toggle → 200 ToggleResponse
func (h *FavoritesHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := h.readCard(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	isFavorite, err := h.view.ToggleFavorite(r.Context(), userID, *card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{ID: card.ID, IsFavorite: isFavorite})
}

// HandleRemove deletes one favorite.
//
// HTTP: DELETE /api/favorites/{id} → 204, 404 when it is not a favorite
func (h *FavoritesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet returns one favorite.
//
// HTTP: GET /api/favorites/{id}
func (h *FavoritesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.favorites.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleStats returns the aggregate counts.
//
// HTTP: GET /api/favorites/stats
func (h *FavoritesHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.favorites.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleExport returns the favorites as a download.
//
// HTTP: GET /api/favorites/export → attachment maxsports-favorites-YYYY-MM-DD.json,
// 404 "no favorites to export" when the list is empty
func (h *FavoritesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	export, err := h.favorites.Export(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="maxsports-favorites-`+h.now()+`.json"`)
	writeJSON(w, http.StatusOK, export)
}

// HandleClear removes every favorite. The caller must pass confirm=true.
//
// HTTP: DELETE /api/favorites?confirm=true → 200 {"removed": n}
func (h *FavoritesHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, apperror.ValidationFailed("confirm", "clearing all favorites needs confirm=true"))
		return
	}

	removed, err := h.favorites.ClearAll(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// readCard decodes the card in the body. A card without a title is looked
// up in the catalog by id.
func (h *FavoritesHandler) readCard(w http.ResponseWriter, r *http.Request) (*model.ExerciseCard, error) {
	var card model.ExerciseCard
	if err := decodeJSON(w, r, &card); err != nil {
		return nil, err
	}
	if card.ID <= 0 {
		return nil, apperror.ValidationFailed("id", "an exercise id is required")
	}
	if card.Title != "" {
		if card.Tags == nil {
			card.Tags = []string{}
		}
		return &card, nil
	}
	return h.view.Lookup(r.Context(), card.ID)
}

// splitTags parses "a, b,,c" into [a b c].
func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func today() string { return time.Now().UTC().Format(time.DateOnly) }
