package service

import (
	"context"
	"fmt"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/repo"
)

// ExportService assembles a full flat export of every stored recipe,
// independent of the catalog's search text and sort mode.
type ExportService struct {
	store repo.RecipeStore
}

// NewExportService constructs an ExportService backed by the provided store.
func NewExportService(store repo.RecipeStore) *ExportService {
	return &ExportService{store: store}
}

// Export returns one ExportRow per recipe in the store's natural order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	recipes, err := s.store.LoadAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(recipes))
	for _, r := range recipes {
		c := r.Clone()
		rows = append(rows, domain.ExportRow{
			RecipeID:     c.ID.String(),
			Title:        c.Title,
			Ingredients:  c.Ingredients,
			Instructions: c.Instructions,
			IsFavorite:   c.IsFavorite,
		})
	}
	return rows, nil
}
