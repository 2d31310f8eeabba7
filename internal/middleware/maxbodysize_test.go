package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/handler"
	"github.com/pkordes/betterrecipe/internal/middleware"
	"github.com/pkordes/betterrecipe/internal/repo"
	"github.com/pkordes/betterrecipe/internal/service"
)

// recipeAPI wires the middleware the way main.go does in front of the
// recipe routes, over a memory store holding Pasta and Soup.
func recipeAPI(t *testing.T, limit int64, logger *slog.Logger) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemoryStore()
	for _, title := range []string{"Pasta", "Soup"} {
		r := domain.NewRecipe()
		r.Title = title
		require.NoError(t, store.Insert(ctx, r))
	}
	require.NoError(t, store.Save(ctx))
	catalog := service.NewCatalog(store)
	require.NoError(t, catalog.Reload(ctx))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMaxBodySizeHandler(limit))
	r.Mount("/", handler.NewServer(catalog, service.NewExportService(store), nil).Routes())
	return r
}

func searchBody(text string) string {
	b, _ := json.Marshal(map[string]string{"text": text})
	return string(b)
}

// bodyReadingHandler is a test http.Handler that reads the full request body.
// It returns 413 if the body read fails (as MaxBytesReader causes), otherwise 200.
// This simulates what a real JSON-decoding handler does on each request.
var bodyReadingHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}
	w.WriteHeader(http.StatusOK)
})

// TestMaxBodySizeHandler_SmallBody_PassesThrough verifies that a request whose body
// is within the limit is forwarded to the next handler unchanged.
func TestMaxBodySizeHandler_SmallBody_PassesThrough(t *testing.T) {
	const limit = 100
	h := middleware.NewMaxBodySizeHandler(limit)(bodyReadingHandler)

	body := strings.NewReader(strings.Repeat("x", 50))
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

// TestMaxBodySizeHandler_ContentLengthExceedsLimit_Returns413 verifies that a
// request advertising a Content-Length larger than the limit is rejected before
// the handler runs and no body bytes are read.
func TestMaxBodySizeHandler_ContentLengthExceedsLimit_Returns413(t *testing.T) {
	const limit = 100
	h := middleware.NewMaxBodySizeHandler(limit)(bodyReadingHandler)

	// We set the Content-Length header manually so the middleware can reject early.
	body := strings.NewReader(strings.Repeat("x", 200))
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.ContentLength = 200
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// TestMaxBodySizeHandler_StreamingBodyExceedsLimit_Returns413 verifies that when no
// Content-Length header is set, the http.MaxBytesReader wrapping causes the body
// read inside the handler to fail once the limit is exceeded.
func TestMaxBodySizeHandler_StreamingBodyExceedsLimit_Returns413(t *testing.T) {
	const limit = 100
	h := middleware.NewMaxBodySizeHandler(limit)(bodyReadingHandler)

	body := strings.NewReader(strings.Repeat("x", 200))
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.ContentLength = -1 // unknown: no Content-Length header
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// TestMaxBodySizeHandler_SearchWithinLimit verifies that a catalog search
// under the limit reaches the handler and filters the list.
func TestMaxBodySizeHandler_SearchWithinLimit(t *testing.T) {
	h := recipeAPI(t, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPut, "/catalog/search", strings.NewReader(searchBody("pas")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list handler.RecipeList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Pasta", list.Data[0].Title)
}

// TestMaxBodySizeHandler_StreamedSearch_JSONEnvelope verifies that an
// oversized search body of unknown length is reported by the handler in the
// API's JSON error envelope, and the search text is left unchanged.
func TestMaxBodySizeHandler_StreamedSearch_JSONEnvelope(t *testing.T) {
	h := recipeAPI(t, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPut, "/catalog/search",
		strings.NewReader(searchBody(strings.Repeat("pasta", 40))))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "body_too_large", resp.Error.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	var list handler.RecipeList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, "", list.Search)
	assert.Len(t, list.Data, 2)
}

// TestMaxBodySizeHandler_DeclaredOversizedSession_RejectedEarly verifies that
// a session update advertising too large a body never reaches the handler,
// so even an unknown session id yields 413 rather than 404.
func TestMaxBodySizeHandler_DeclaredOversizedSession_RejectedEarly(t *testing.T) {
	h := recipeAPI(t, 64, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"title":"` + strings.Repeat("x", 100) + `"}`
	req := httptest.NewRequest(http.MethodPatch, "/sessions/8c1f7a52-53c6-4bb4-8b6e-0d6f1ad2c0a1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
