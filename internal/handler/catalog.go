// Package handler contains the HTTP handlers of the local JSON API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path values, query, JSON body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic. Everything they know about failures is
// the apperror kind, which writeError turns into a status code.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/catalog"
)

// CatalogHandler serves the exercise catalog page.
type CatalogHandler struct {
	view   *catalog.View
	logger *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(view *catalog.View, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{view: view, logger: logger}
}

// HandleList returns one page of exercise cards. A logged-in caller (see
// auth.OptionalAuth) gets isFavorite set on the cards they saved.
//
// HTTP: GET /api/exercises?page=1&limit=5&search=&category=&sort=&order=
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, _ := auth.UserIDFromContext(r.Context())

	page, err := h.view.Load(r.Context(), userID, catalog.ViewQuery{
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 0),
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	})
	if err != nil {
		h.logger.Warn("catalog load failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleHealth reports that the server is up.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
