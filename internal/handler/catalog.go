package handler

import (
	"net/http"

	"github.com/pkordes/betterrecipe/internal/domain"
)

// RecipeList is the body of GET /recipes and of the catalog settings endpoints.
type RecipeList struct {
	Data       []domain.Row `json:"data"`
	Pagination Pagination   `json:"pagination"`
	Search     string       `json:"search"`
	Sort       string       `json:"sort"`
}

// Pagination describes the page returned and the full view size.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type searchRequest struct {
	Text string `json:"text"`
}

type sortRequest struct {
	Mode string `json:"mode"`
}

// ListRecipes handles GET /recipes.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
// Row indexes are positions in the whole view, so they can be passed to DELETE /view/{index}.
func (s *Server) ListRecipes(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.listPage(domain.NewPaginationParams(page, limit)))
}

// SetSearch handles PUT /catalog/search.
// Reloads the catalog from the store and returns the first page of the new view.
func (s *Server) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.SetSearchText(r.Context(), req.Text); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.listPage(domain.NewPaginationParams(nil, nil)))
}

// SetSort handles PUT /catalog/sort.
func (s *Server) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := domain.ParseSortMode(req.Mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.SetSortMode(mode)
	writeJSON(w, http.StatusOK, s.listPage(domain.NewPaginationParams(nil, nil)))
}

// GetRecipe handles GET /recipes/{id}.
func (s *Server) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	recipe, err := s.catalog.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// ToggleFavorite handles POST /recipes/{id}/favorite.
func (s *Server) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.ToggleFavorite(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	recipe, err := s.catalog.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// DeleteAt handles DELETE /view/{index}.
// The index addresses the row as currently displayed, not the store order.
func (s *Server) DeleteAt(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.DeleteAt(r.Context(), index); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listPage slices the current view. The caller must hold s.mu.
func (s *Server) listPage(params domain.PaginationParams) RecipeList {
	rows := s.catalog.List()
	start, end := params.Window(len(rows))
	return RecipeList{
		Data: rows[start:end],
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: len(rows),
		},
		Search: s.catalog.SearchText(),
		Sort:   s.catalog.SortMode().String(),
	}
}
