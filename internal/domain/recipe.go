// Package domain contains the core data types for the BetterRecipe application.
// This package depends only on google/uuid and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Recipe is the persisted recipe record.
// ID is assigned once by NewRecipe and never changes afterwards.
// Ingredients keep insertion order and may contain duplicates.
type Recipe struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	IsFavorite   bool      `json:"is_favorite"`
}

// NewRecipe returns an empty draft with a freshly generated ID.
func NewRecipe() *Recipe {
	return &Recipe{
		ID:          uuid.New(),
		Ingredients: []string{},
	}
}

// Clone returns a deep copy of r. The ingredient slice is never shared.
func (r Recipe) Clone() Recipe {
	c := r
	c.Ingredients = slices.Clone(r.Ingredients)
	if c.Ingredients == nil {
		c.Ingredients = []string{}
	}
	return c
}

// Equal reports whether r and o hold the same field values.
func (r Recipe) Equal(o Recipe) bool {
	return r.ID == o.ID &&
		r.Title == o.Title &&
		r.Instructions == o.Instructions &&
		r.IsFavorite == o.IsFavorite &&
		slices.Equal(r.Ingredients, o.Ingredients)
}

// Row is the list-view projection of a Recipe.
// Index is the position of the row in the displayed sequence.
type Row struct {
	Index      int       `json:"index"`
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	IsFavorite bool      `json:"is_favorite"`
}

// MatchesSearch reports whether title contains text as a case-insensitive
// substring. An empty text matches every title.
func MatchesSearch(title, text string) bool {
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(text))
}

// CompareNatural orders recipes the way the store returns them:
// title ascending by byte-wise comparison, then ID.
func CompareNatural(a, b *Recipe) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
