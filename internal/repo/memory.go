package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
)

// memoryBackend keeps recipes in a map. Used for DATABASE_URL=memory and tests.
type memoryBackend struct {
	rows   map[uuid.UUID]domain.Recipe
	closed bool
}

// NewMemoryBackend returns an empty in-memory Backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{rows: make(map[uuid.UUID]domain.Recipe)}
}

// NewMemoryStore returns a Store over a fresh in-memory Backend.
func NewMemoryStore() *Store {
	return NewStore(NewMemoryBackend())
}

func (m *memoryBackend) Query(_ context.Context, search string) ([]domain.Recipe, error) {
	if m.closed {
		return nil, errClosed
	}
	out := make([]domain.Recipe, 0, len(m.rows))
	for _, r := range m.rows {
		if domain.MatchesSearch(r.Title, search) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *memoryBackend) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	if m.closed {
		return false, errClosed
	}
	_, ok := m.rows[id]
	return ok, nil
}

// Apply validates the whole changeset before touching the map so a failure
// leaves the rows unchanged.
func (m *memoryBackend) Apply(_ context.Context, cs Changeset) error {
	if m.closed {
		return errClosed
	}
	for _, r := range cs.Inserts {
		if _, ok := m.rows[r.ID]; ok {
			return fmt.Errorf("repo.memoryBackend.Apply: %w: duplicate id %s", domain.ErrStore, r.ID)
		}
	}
	for _, r := range cs.Updates {
		if _, ok := m.rows[r.ID]; !ok {
			return fmt.Errorf("repo.memoryBackend.Apply: update %s: %w", r.ID, domain.ErrNotFound)
		}
	}
	for _, id := range cs.Deletes {
		if _, ok := m.rows[id]; !ok {
			return fmt.Errorf("repo.memoryBackend.Apply: delete %s: %w", id, domain.ErrNotFound)
		}
	}

	for _, r := range cs.Inserts {
		m.rows[r.ID] = r.Clone()
	}
	for _, r := range cs.Updates {
		m.rows[r.ID] = r.Clone()
	}
	for _, id := range cs.Deletes {
		delete(m.rows, id)
	}
	return nil
}

func (m *memoryBackend) Close() error {
	m.closed = true
	return nil
}

var errClosed = errors.New("backend closed")
