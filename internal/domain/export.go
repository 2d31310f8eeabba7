package domain

// ExportRow is a single row in the full-data export.
// It is a flat view of one recipe: ingredients are kept as a slice so JSON
// callers get an array, while CSV callers join them into one cell.
type ExportRow struct {
	RecipeID     string
	Title        string
	Ingredients  []string
	Instructions string
	IsFavorite   bool
}
