// Package service contains the business logic for the BetterRecipe catalog.
// Catalog owns the searchable, sortable view over the store and is the only
// write path to it; Session drives the detail screen's read/edit/create states.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/repo"
)

// Catalog is the in-memory view over a RecipeStore.
// loaded holds the store's answer for the current search text in natural
// order; view is loaded transformed by the current sort mode.
// A Catalog is not safe for concurrent use.
type Catalog struct {
	store  repo.RecipeStore
	search string
	mode   domain.SortMode
	loaded []*domain.Recipe
	view   []*domain.Recipe
}

// NewCatalog constructs a Catalog over store. Call Reload (or SetSearchText)
// before reading the view; a new Catalog starts empty.
func NewCatalog(store repo.RecipeStore) *Catalog {
	return &Catalog{store: store}
}

// SearchText returns the current search text.
func (c *Catalog) SearchText() string { return c.search }

// SortMode returns the current sort mode.
func (c *Catalog) SortMode() domain.SortMode { return c.mode }

// Reload re-reads the store with the current search text.
func (c *Catalog) Reload(ctx context.Context) error {
	loaded, err := c.store.LoadAll(ctx, c.search)
	if err != nil {
		return fmt.Errorf("service.Catalog.Reload: %w", err)
	}
	c.loaded = loaded
	c.applySort()
	return nil
}

// SetSearchText replaces the search text and reloads from the store.
// On failure the previous text and view are kept.
func (c *Catalog) SetSearchText(ctx context.Context, text string) error {
	loaded, err := c.store.LoadAll(ctx, text)
	if err != nil {
		return fmt.Errorf("service.Catalog.SetSearchText: %w", err)
	}
	c.search = text
	c.loaded = loaded
	c.applySort()
	return nil
}

// SetSortMode recomputes the view from the already loaded recipes.
// The store is not consulted.
func (c *Catalog) SetSortMode(mode domain.SortMode) {
	c.mode = mode
	c.applySort()
}

// List returns the displayed rows in view order.
// Always returns a non-nil slice so callers can safely range over it.
func (c *Catalog) List() []domain.Row {
	rows := make([]domain.Row, len(c.view))
	for i, r := range c.view {
		rows[i] = domain.Row{Index: i, ID: r.ID, Title: r.Title, IsFavorite: r.IsFavorite}
	}
	return rows
}

// Get returns a copy of the loaded recipe with the given id.
// Returns domain.ErrNotFound if it is not in the loaded set.
func (c *Catalog) Get(id uuid.UUID) (domain.Recipe, error) {
	r, err := c.find(id)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("service.Catalog.Get: %w", err)
	}
	return r.Clone(), nil
}

// ToggleFavorite flips the favorite flag of a loaded recipe and saves.
// Returns domain.ErrNotFound for an id outside the loaded set. If the save
// fails the flag is put back and the error is returned.
func (c *Catalog) ToggleFavorite(ctx context.Context, id uuid.UUID) error {
	r, err := c.find(id)
	if err != nil {
		return fmt.Errorf("service.Catalog.ToggleFavorite: %w", err)
	}

	if err := c.mutate(ctx, r, func(r *domain.Recipe) { r.IsFavorite = !r.IsFavorite }); err != nil {
		return fmt.Errorf("service.Catalog.ToggleFavorite: %w", err)
	}
	return nil
}

// BeginCreate returns a Session in the creating state holding a new draft.
// The draft is not handed to the store until the session commits.
func (c *Catalog) BeginCreate() *Session {
	return &Session{catalog: c, recipe: domain.NewRecipe(), state: StateCreating}
}

// Open returns a Session in the reading state for a loaded recipe.
// Returns domain.ErrNotFound if id is not in the loaded set.
func (c *Catalog) Open(id uuid.UUID) (*Session, error) {
	r, err := c.find(id)
	if err != nil {
		return nil, fmt.Errorf("service.Catalog.Open: %w", err)
	}
	return &Session{catalog: c, recipe: r, state: StateReading}, nil
}

// DeleteAt deletes the recipe displayed at index. The index is resolved
// against the view the caller sees, then the recipe is handed to the store
// by identity, never by its position in store order.
// Returns domain.ErrIndexOutOfRange if no row is displayed at index.
func (c *Catalog) DeleteAt(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.view) {
		return fmt.Errorf("service.Catalog.DeleteAt: %w: %d not in [0,%d)", domain.ErrIndexOutOfRange, index, len(c.view))
	}
	target := c.view[index]

	if err := c.store.Delete(ctx, target); err != nil {
		return fmt.Errorf("service.Catalog.DeleteAt: %w", err)
	}
	if err := c.store.Save(ctx); err != nil {
		return fmt.Errorf("service.Catalog.DeleteAt: %w", err)
	}

	c.loaded = slices.DeleteFunc(c.loaded, func(r *domain.Recipe) bool { return r.ID == target.ID })
	c.applySort()
	return nil
}

// find looks an id up in the loaded set.
func (c *Catalog) find(id uuid.UUID) (*domain.Recipe, error) {
	for _, r := range c.loaded {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
}

// mutate applies fn to a persisted recipe and saves. On failure the recipe
// is put back to its pre-mutation values, which are its last saved values.
func (c *Catalog) mutate(ctx context.Context, r *domain.Recipe, fn func(*domain.Recipe)) error {
	before := r.Clone()
	fn(r)
	if err := c.store.Save(ctx); err != nil {
		*r = before
		return err
	}
	c.include(r)
	return nil
}

// include brings the view in line with a saved recipe: r joins the loaded
// set when its title matches the search text and it is not there yet.
func (c *Catalog) include(r *domain.Recipe) {
	if !slices.Contains(c.loaded, r) && domain.MatchesSearch(r.Title, c.search) {
		c.loaded = append(c.loaded, r)
	}
	c.refresh()
}

// refresh re-establishes the store's invariants on the loaded set after an
// in-place edit: matching the search text and natural order. Then resorts.
func (c *Catalog) refresh() {
	c.loaded = slices.DeleteFunc(c.loaded, func(r *domain.Recipe) bool {
		return !domain.MatchesSearch(r.Title, c.search)
	})
	slices.SortStableFunc(c.loaded, domain.CompareNatural)
	c.applySort()
}

// applySort derives the view from loaded according to the sort mode.
func (c *Catalog) applySort() {
	switch c.mode {
	case domain.SortAlphabetical:
		view := slices.Clone(c.loaded)
		slices.SortStableFunc(view, func(a, b *domain.Recipe) int {
			return strings.Compare(a.Title, b.Title)
		})
		c.view = view
	case domain.SortFavoritesOnly:
		view := make([]*domain.Recipe, 0, len(c.loaded))
		for _, r := range c.loaded {
			if r.IsFavorite {
				view = append(view, r)
			}
		}
		c.view = view
	default:
		c.view = slices.Clone(c.loaded)
	}
}
