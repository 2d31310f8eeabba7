package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
)

// SessionState is the state of an editable recipe session.
type SessionState int

const (
	// StateReading shows a persisted recipe; field edits are rejected.
	StateReading SessionState = iota
	// StateEditing applies edits to a persisted recipe and saves each one.
	StateEditing
	// StateCreating edits an unsaved draft; nothing reaches the store until Commit.
	StateCreating
	// StateCommitted is terminal: the draft has been saved.
	StateCommitted
	// StateDiscarded is terminal: the draft was dropped.
	StateDiscarded
)

// String returns the wire name of the state.
func (s SessionState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateEditing:
		return "editing"
	case StateCreating:
		return "creating"
	case StateCommitted:
		return "committed"
	case StateDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Session is the detail screen's state machine for one recipe.
//
//	Reading ⇄ Editing          (persisted recipe, opened via Catalog.Open)
//	Creating → Committed       (draft, via Catalog.BeginCreate, then Commit)
//	Creating → Discarded       (draft, then Cancel)
//
// Edits in Editing go straight to the live recipe and are saved at once;
// leaving Editing does not revert them. A Session is not safe for concurrent use.
type Session struct {
	catalog *Catalog
	recipe  *domain.Recipe
	state   SessionState
}

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// RecipeID returns the id of the recipe or draft behind the session.
func (s *Session) RecipeID() uuid.UUID { return s.recipe.ID }

// Recipe returns a copy of the recipe as the session currently sees it.
func (s *Session) Recipe() domain.Recipe { return s.recipe.Clone() }

// ToggleEdit switches between Reading and Editing.
// Returns domain.ErrInvalidState for drafts and finished sessions.
func (s *Session) ToggleEdit() error {
	switch s.state {
	case StateReading:
		s.state = StateEditing
	case StateEditing:
		s.state = StateReading
	default:
		return fmt.Errorf("service.Session.ToggleEdit: %w: %s", domain.ErrInvalidState, s.state)
	}
	return nil
}

// Commit inserts the draft into the store and saves.
// On failure the session stays in Creating and can be committed again.
func (s *Session) Commit(ctx context.Context) error {
	if s.state != StateCreating {
		return fmt.Errorf("service.Session.Commit: %w: %s", domain.ErrInvalidState, s.state)
	}

	store := s.catalog.store
	if err := store.Insert(ctx, s.recipe); err != nil {
		return fmt.Errorf("service.Session.Commit: %w", err)
	}
	if err := store.Save(ctx); err != nil {
		return fmt.Errorf("service.Session.Commit: %w", err)
	}

	s.state = StateCommitted
	s.catalog.include(s.recipe)
	return nil
}

// Cancel drops the draft without touching the store.
func (s *Session) Cancel() error {
	if s.state != StateCreating {
		return fmt.Errorf("service.Session.Cancel: %w: %s", domain.ErrInvalidState, s.state)
	}
	s.state = StateDiscarded
	return nil
}

// SetTitle replaces the title. An empty title is allowed.
func (s *Session) SetTitle(ctx context.Context, title string) error {
	return s.edit(ctx, "SetTitle", func(r *domain.Recipe) { r.Title = title })
}

// SetInstructions replaces the instructions text.
func (s *Session) SetInstructions(ctx context.Context, text string) error {
	return s.edit(ctx, "SetInstructions", func(r *domain.Recipe) { r.Instructions = text })
}

// Update replaces the title and the instructions where given. Both changes
// are one edit: a persisted recipe is saved once, and a failed save reverts
// both.
func (s *Session) Update(ctx context.Context, title, instructions *string) error {
	return s.edit(ctx, "Update", func(r *domain.Recipe) {
		if title != nil {
			r.Title = *title
		}
		if instructions != nil {
			r.Instructions = *instructions
		}
	})
}

// AddIngredient appends the trimmed text to the ingredient list.
// Text that is empty after trimming is ignored.
func (s *Session) AddIngredient(ctx context.Context, text string) error {
	if err := s.checkEditable("AddIngredient"); err != nil {
		return err
	}
	item := strings.TrimSpace(text)
	if item == "" {
		return nil
	}
	return s.edit(ctx, "AddIngredient", func(r *domain.Recipe) {
		r.Ingredients = append(r.Ingredients, item)
	})
}

// RemoveIngredient removes the ingredient at index i of the current list.
// Returns domain.ErrIndexOutOfRange when i does not address an ingredient.
func (s *Session) RemoveIngredient(ctx context.Context, i int) error {
	if err := s.checkEditable("RemoveIngredient"); err != nil {
		return err
	}
	if i < 0 || i >= len(s.recipe.Ingredients) {
		return fmt.Errorf("service.Session.RemoveIngredient: %w: %d not in [0,%d)",
			domain.ErrIndexOutOfRange, i, len(s.recipe.Ingredients))
	}
	return s.edit(ctx, "RemoveIngredient", func(r *domain.Recipe) {
		r.Ingredients = slices.Delete(r.Ingredients, i, i+1)
	})
}

// ToggleFavorite flips the favorite flag from the detail screen.
// It works while reading as well as editing; a draft just flips its flag.
func (s *Session) ToggleFavorite(ctx context.Context) error {
	flip := func(r *domain.Recipe) { r.IsFavorite = !r.IsFavorite }
	switch s.state {
	case StateCreating:
		flip(s.recipe)
		return nil
	case StateReading, StateEditing:
		if err := s.persist(ctx, flip); err != nil {
			return fmt.Errorf("service.Session.ToggleFavorite: %w", err)
		}
		return nil
	}
	return fmt.Errorf("service.Session.ToggleFavorite: %w: %s", domain.ErrInvalidState, s.state)
}

// checkEditable rejects field edits outside Editing and Creating.
func (s *Session) checkEditable(op string) error {
	if s.state != StateEditing && s.state != StateCreating {
		return fmt.Errorf("service.Session.%s: %w: %s", op, domain.ErrInvalidState, s.state)
	}
	return nil
}

// edit applies fn: in memory for a draft, through the catalog (with a save)
// for a persisted recipe.
func (s *Session) edit(ctx context.Context, op string, fn func(*domain.Recipe)) error {
	if err := s.checkEditable(op); err != nil {
		return err
	}
	if s.state == StateCreating {
		fn(s.recipe)
		return nil
	}
	if err := s.persist(ctx, fn); err != nil {
		return fmt.Errorf("service.Session.%s: %w", op, err)
	}
	return nil
}

// persist routes a change to a persisted recipe through the catalog, the
// single write path to the store. The recipe may have left the current view;
// it only has to still exist in the store.
func (s *Session) persist(ctx context.Context, fn func(*domain.Recipe)) error {
	if !s.catalog.store.Tracks(s.recipe) {
		return fmt.Errorf("recipe %s: %w", s.recipe.ID, domain.ErrNotFound)
	}
	return s.catalog.mutate(ctx, s.recipe, fn)
}
