package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/catalog"
	"github.com/sakif/maxsports/internal/handler"
	"github.com/sakif/maxsports/internal/model"
)

func TestCatalogHandler_List(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerAlice(t)

	_, _, err := env.app.Favorites.Add(context.Background(), userID, model.ExerciseCard{ID: 7, Title: "Burpee"})
	require.NoError(t, err)

	t.Run("anonymous page", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.catalog.HandleList(rr, newRequest(t, http.MethodGet, "/api/exercises", "", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		page := decodeBody[catalog.ViewPage](t, rr)
		assert.Len(t, page.Cards, catalog.DefaultPageSize)
		assert.Equal(t, 20, page.Total)
		assert.True(t, page.HasMore)
		for _, c := range page.Cards {
			assert.False(t, c.IsFavorite)
		}
	})

	t.Run("logged-in page marks favorites", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.catalog.HandleList(rr, newRequest(t, http.MethodGet, "/api/exercises?page=2&limit=5", userID, nil))
		require.Equal(t, http.StatusOK, rr.Code)

		page := decodeBody[catalog.ViewPage](t, rr)
		require.Len(t, page.Cards, 5)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 6, page.Cards[0].ID)
		assert.True(t, page.Cards[1].IsFavorite, "exercise 7 is a favorite")
	})

	t.Run("search", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.catalog.HandleList(rr, newRequest(t, http.MethodGet, "/api/exercises?search=squat", "", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		page := decodeBody[catalog.ViewPage](t, rr)
		require.Len(t, page.Cards, 1)
		assert.Equal(t, "Squat", page.Cards[0].Title)
	})
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
