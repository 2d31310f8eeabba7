// Package repo contains all persistence logic for the BetterRecipe catalog.
// Store is a small unit of work over a Backend: it hands out live recipe
// pointers, stages inserts and deletes, and flushes everything in one atomic
// Save. Backends (SQL, memory) only know how to query and apply changesets.
// No catalog logic lives here.
package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
)

// RecipeStore defines the persistence operations the catalog depends on.
// The service layer depends on this interface, not on Store directly,
// which allows the catalog to be unit-tested with a mock.
type RecipeStore interface {
	// LoadAll returns every recipe whose title contains search as a
	// case-insensitive substring, in natural order (title, then id).
	// Pass search="" to return all recipes. Staged changes are visible.
	LoadAll(ctx context.Context, search string) ([]*domain.Recipe, error)

	// Insert stages a new recipe. Returns domain.ErrStore if a recipe with
	// the same id is already tracked or persisted.
	Insert(ctx context.Context, r *domain.Recipe) error

	// Delete stages removal of a recipe by id.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, r *domain.Recipe) error

	// Save flushes staged inserts, deletes and field mutations atomically.
	// Returns domain.ErrPersistence on I/O failure, after rolling the
	// in-memory state back to the last successful save.
	Save(ctx context.Context) error

	// Tracks reports whether r is the live recipe for a persisted id that
	// is not staged for deletion. It never touches the backend.
	Tracks(r *domain.Recipe) bool
}

// Changeset is one atomic batch of writes handed to a Backend.
type Changeset struct {
	Inserts []domain.Recipe
	Updates []domain.Recipe
	Deletes []uuid.UUID
}

// Empty reports whether the changeset carries no writes.
func (c Changeset) Empty() bool {
	return len(c.Inserts) == 0 && len(c.Updates) == 0 && len(c.Deletes) == 0
}

// Backend is the durable half of a Store.
// Implementations must apply a Changeset all-or-nothing and wrap id
// collisions in domain.ErrStore.
type Backend interface {
	// Query returns persisted recipes matching search. Order is not significant.
	Query(ctx context.Context, search string) ([]domain.Recipe, error)
	// Exists reports whether a recipe with the given id is persisted.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Apply writes the changeset in a single transaction.
	Apply(ctx context.Context, cs Changeset) error
	// Close releases the backend's resources.
	Close() error
}

type entryState int

const (
	stateClean entryState = iota
	stateNew
	stateDeleted
)

// entry is the store's bookkeeping for one live recipe.
// saved holds the last persisted field values and is unset for stateNew.
type entry struct {
	live  *domain.Recipe
	saved domain.Recipe
	state entryState
}

// Store implements RecipeStore on top of a Backend.
// A Store is not safe for concurrent use.
type Store struct {
	backend Backend
	tracked map[uuid.UUID]*entry
}

// compile-time check: Store must satisfy RecipeStore.
var _ RecipeStore = (*Store)(nil)

// NewStore constructs a Store backed by b.
func NewStore(b Backend) *Store {
	return &Store{backend: b, tracked: make(map[uuid.UUID]*entry)}
}

// Close closes the underlying backend. Unsaved changes are discarded.
func (s *Store) Close() error {
	return s.backend.Close()
}

// LoadAll returns live pointers: the same *domain.Recipe is returned for the
// same id across calls, so in-place edits are seen by every holder.
func (s *Store) LoadAll(ctx context.Context, search string) ([]*domain.Recipe, error) {
	rows, err := s.backend.Query(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("repo.Store.LoadAll: %w: %w", domain.ErrPersistence, err)
	}

	out := make([]*domain.Recipe, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		seen[row.ID] = struct{}{}
		e, ok := s.tracked[row.ID]
		if !ok {
			live := row.Clone()
			e = &entry{live: &live, saved: row.Clone()}
			s.tracked[row.ID] = e
		}
		if e.state == stateDeleted {
			continue
		}
		out = append(out, e.live)
	}

	// Staged inserts are not in the backend yet.
	for id, e := range s.tracked {
		if _, ok := seen[id]; ok || e.state != stateNew {
			continue
		}
		if domain.MatchesSearch(e.live.Title, search) {
			out = append(out, e.live)
		}
	}

	slices.SortFunc(out, domain.CompareNatural)
	return out, nil
}

// Insert stages r for insertion on the next Save.
// r becomes the live pointer for its id.
func (s *Store) Insert(ctx context.Context, r *domain.Recipe) error {
	if r == nil {
		return fmt.Errorf("repo.Store.Insert: %w: nil recipe", domain.ErrStore)
	}
	if _, ok := s.tracked[r.ID]; ok {
		return fmt.Errorf("repo.Store.Insert: %w: duplicate id %s", domain.ErrStore, r.ID)
	}
	exists, err := s.backend.Exists(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("repo.Store.Insert: %w: %w", domain.ErrPersistence, err)
	}
	if exists {
		return fmt.Errorf("repo.Store.Insert: %w: duplicate id %s", domain.ErrStore, r.ID)
	}

	s.tracked[r.ID] = &entry{live: r, state: stateNew}
	return nil
}

// Delete stages removal of the recipe with r's id.
// Deleting a staged insert simply unstages it.
func (s *Store) Delete(ctx context.Context, r *domain.Recipe) error {
	if r == nil {
		return fmt.Errorf("repo.Store.Delete: %w", domain.ErrNotFound)
	}

	e, ok := s.tracked[r.ID]
	if !ok {
		exists, err := s.backend.Exists(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("repo.Store.Delete: %w: %w", domain.ErrPersistence, err)
		}
		if !exists {
			return fmt.Errorf("repo.Store.Delete: %w", domain.ErrNotFound)
		}
		e = &entry{live: r, saved: r.Clone()}
		s.tracked[r.ID] = e
	}

	switch e.state {
	case stateDeleted:
		return fmt.Errorf("repo.Store.Delete: %w", domain.ErrNotFound)
	case stateNew:
		delete(s.tracked, r.ID)
	default:
		e.state = stateDeleted
	}
	return nil
}

// Tracks reports whether r is the live pointer of a persisted recipe.
// Recipes outside the last search are still tracked; deleted ones are not.
func (s *Store) Tracks(r *domain.Recipe) bool {
	if r == nil {
		return false
	}
	e, ok := s.tracked[r.ID]
	return ok && e.live == r && e.state == stateClean
}

// Save diffs every live recipe against its saved values and hands the
// resulting changeset to the backend. Nothing is written when nothing changed.
func (s *Store) Save(ctx context.Context) error {
	cs := s.pending()
	if cs.Empty() {
		return nil
	}

	if err := s.backend.Apply(ctx, cs); err != nil {
		s.rollback()
		if errors.Is(err, domain.ErrStore) {
			return fmt.Errorf("repo.Store.Save: %w", err)
		}
		return fmt.Errorf("repo.Store.Save: %w: %w", domain.ErrPersistence, err)
	}

	s.commit()
	return nil
}

// pending collects the staged writes in deterministic (id) order.
func (s *Store) pending() Changeset {
	ids := make([]uuid.UUID, 0, len(s.tracked))
	for id := range s.tracked {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	var cs Changeset
	for _, id := range ids {
		e := s.tracked[id]
		switch e.state {
		case stateNew:
			cs.Inserts = append(cs.Inserts, e.live.Clone())
		case stateDeleted:
			cs.Deletes = append(cs.Deletes, id)
		default:
			if !e.live.Equal(e.saved) {
				cs.Updates = append(cs.Updates, e.live.Clone())
			}
		}
	}
	return cs
}

// rollback restores the state of the last successful Save.
// Live pointers keep their identity; only their fields are reverted.
func (s *Store) rollback() {
	for id, e := range s.tracked {
		switch e.state {
		case stateNew:
			delete(s.tracked, id)
		case stateDeleted:
			e.state = stateClean
			*e.live = e.saved.Clone()
		default:
			if !e.live.Equal(e.saved) {
				*e.live = e.saved.Clone()
			}
		}
	}
}

// commit marks every staged write as persisted.
func (s *Store) commit() {
	for id, e := range s.tracked {
		if e.state == stateDeleted {
			delete(s.tracked, id)
			continue
		}
		e.state = stateClean
		e.saved = e.live.Clone()
	}
}
