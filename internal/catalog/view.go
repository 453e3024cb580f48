package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/listing"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

// DefaultPageSize is the page size when none is requested.
const DefaultPageSize = 5

// ViewQuery is what the catalog page asks for.
type ViewQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     string
	Order    string
}

// ViewCard is a card plus whether the viewing user has it as a favorite.
type ViewCard struct {
	model.ExerciseCard
	IsFavorite bool `json:"isFavorite"`
}

// ViewPage is one rendered page of the catalog.
type ViewPage struct {
	Cards      []ViewCard `json:"cards"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
	HasMore    bool       `json:"hasMore"`
	Categories []string   `json:"categories"`
}

// Bookmarker mirrors favorites to the remote API. *Client implements it.
type Bookmarker interface {
	Bookmark(ctx context.Context, exerciseID int) (string, error)
	Unbookmark(ctx context.Context, exerciseID int) (string, error)
}

// View is the catalog page: one page of exercises from a Source, turned into
// cards with media resolved, filtered and sorted client-side, and marked
// with the user's favorites.
type View struct {
	source    Source
	favorites *service.FavoritesService
	bookmarks Bookmarker // nil: no remote mirroring
	pageSize  int
	logger    *slog.Logger
}

// NewView returns a View over source. pageSize <= 0 means DefaultPageSize.
// bookmarks may be nil to keep favorites local only.
func NewView(source Source, favorites *service.FavoritesService, bookmarks Bookmarker, pageSize int, logger *slog.Logger) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		source:    source,
		favorites: favorites,
		bookmarks: bookmarks,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Load fetches and renders one page. userID may be empty; then no card is
// marked as a favorite.
func (v *View) Load(ctx context.Context, userID string, q ViewQuery) (*ViewPage, error) {
	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = v.pageSize
	}

	result, err := v.source.ListExercises(ctx, Params{
		Page:     page,
		Limit:    limit,
		Search:   q.Search,
		Category: q.Category,
		Sort:     q.Sort,
		Order:    q.Order,
	})
	if err != nil {
		return nil, err
	}

	origin := v.source.Origin()
	cards := make([]model.ExerciseCard, 0, len(result.Items))
	remoteCategories := make([]string, 0, len(result.Items))
	for _, e := range result.Items {
		cards = append(cards, ToCard(origin, e))
		remoteCategories = append(remoteCategories, e.Category)
	}

	favIDs := map[int]bool{}
	if userID != "" {
		favs, err := v.favorites.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, f := range favs {
			favIDs[f.ID] = true
		}
	}

	visible := listing.Apply(cards, listing.Query{
		Search:   q.Search,
		Category: q.Category,
		Sort:     q.Sort,
		Order:    q.Order,
	})
	out := make([]ViewCard, 0, len(visible))
	for _, c := range visible {
		out = append(out, ViewCard{ExerciseCard: c, IsFavorite: favIDs[c.ID]})
	}

	pg := result.Pagination
	if pg.Page <= 0 {
		pg.Page = page
	}
	if pg.Limit <= 0 {
		pg.Limit = limit
	}
	totalPages := (pg.Total + pg.Limit - 1) / pg.Limit

	return &ViewPage{
		Cards:      out,
		Page:       pg.Page,
		Limit:      pg.Limit,
		Total:      pg.Total,
		TotalPages: totalPages,
		HasMore:    pg.Page < totalPages,
		Categories: listing.Categories(cards, remoteCategories...),
	}, nil
}

// ToggleFavorite flips card in the user's favorites and reports whether it
// is a favorite afterwards. With a Bookmarker the change is mirrored to the
// remote API; a remote failure is logged, the local change stands.
func (v *View) ToggleFavorite(ctx context.Context, userID string, card model.ExerciseCard) (bool, error) {
	nowFavorite, err := v.favorites.Toggle(ctx, userID, card)
	if err != nil {
		return false, err
	}
	if v.bookmarks == nil {
		return nowFavorite, nil
	}

	var msg string
	if nowFavorite {
		msg, err = v.bookmarks.Bookmark(ctx, card.ID)
	} else {
		msg, err = v.bookmarks.Unbookmark(ctx, card.ID)
	}
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		v.logger.Debug("bookmark sync skipped: not logged in remotely", slog.Int("exerciseID", card.ID))
	case err != nil:
		v.logger.Warn("bookmark sync failed",
			slog.Int("exerciseID", card.ID),
			slog.String("error", err.Error()),
		)
	default:
		v.logger.Debug("bookmark synced",
			slog.Int("exerciseID", card.ID),
			slog.String("result", msg),
		)
	}
	return nowFavorite, nil
}

// lookupPageSize and lookupMaxPages bound the scan Lookup does.
const (
	lookupPageSize = 50
	lookupMaxPages = 20
)

// Lookup returns the card of exerciseID. The remote API has no single-item
// endpoint, so it walks the unfiltered catalog page by page. It returns
// apperror.ErrNotFound when the exercise is not found.
func (v *View) Lookup(ctx context.Context, exerciseID int) (*model.ExerciseCard, error) {
	origin := v.source.Origin()
	for page := 1; page <= lookupMaxPages; page++ {
		result, err := v.source.ListExercises(ctx, Params{Page: page, Limit: lookupPageSize})
		if err != nil {
			return nil, err
		}
		for _, e := range result.Items {
			if e.ID == exerciseID {
				card := ToCard(origin, e)
				return &card, nil
			}
		}
		if len(result.Items) == 0 || page*lookupPageSize >= result.Pagination.Total {
			break
		}
	}
	return nil, apperror.NotFound("exercise", strconv.Itoa(exerciseID))
}
