package domain

import (
	"fmt"
	"strings"
)

// SortMode selects how the catalog orders its displayed sequence.
type SortMode int

const (
	// SortNone keeps the store's natural order.
	SortNone SortMode = iota
	// SortAlphabetical orders by title, ascending, stable.
	SortAlphabetical
	// SortFavoritesOnly keeps favorites only, in their original order.
	SortFavoritesOnly
)

// String returns the wire name of the mode.
func (m SortMode) String() string {
	switch m {
	case SortAlphabetical:
		return "alphabetical"
	case SortFavoritesOnly:
		return "favorites"
	default:
		return "none"
	}
}

// ParseSortMode converts a wire name into a SortMode.
// Matching is case-insensitive; "" maps to SortNone.
// Returns ErrValidation for unknown names.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "alphabetical", "alpha":
		return SortAlphabetical, nil
	case "favorites", "favorite", "favorites_only":
		return SortFavoritesOnly, nil
	}
	return SortNone, fmt.Errorf("%w: unknown sort mode %q", ErrValidation, s)
}
