package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/repo"
	"github.com/pkordes/betterrecipe/internal/service"
)

// mockStore is a hand-written test double for repo.RecipeStore.
// Each method is a function field; set only the ones your test needs.
type mockStore struct {
	loadAll func(ctx context.Context, search string) ([]*domain.Recipe, error)
	insert  func(ctx context.Context, r *domain.Recipe) error
	delete  func(ctx context.Context, r *domain.Recipe) error
	save    func(ctx context.Context) error
	tracks  func(r *domain.Recipe) bool
}

func (m *mockStore) LoadAll(ctx context.Context, search string) ([]*domain.Recipe, error) {
	return m.loadAll(ctx, search)
}
func (m *mockStore) Insert(ctx context.Context, r *domain.Recipe) error {
	return m.insert(ctx, r)
}
func (m *mockStore) Delete(ctx context.Context, r *domain.Recipe) error {
	return m.delete(ctx, r)
}
func (m *mockStore) Save(ctx context.Context) error {
	return m.save(ctx)
}
func (m *mockStore) Tracks(r *domain.Recipe) bool {
	return m.tracks(r)
}

// compile-time check: mockStore must satisfy repo.RecipeStore.
var _ repo.RecipeStore = (*mockStore)(nil)

// ---- helpers ---------------------------------------------------------------

func recipeFixture(title string, favorite bool) *domain.Recipe {
	r := domain.NewRecipe()
	r.Title = title
	r.IsFavorite = favorite
	return r
}

// fixedStore is a mock whose LoadAll always returns recipes in the given
// order, ignoring the search text. Useful when store order must differ from
// title order.
func fixedStore(recipes ...*domain.Recipe) *mockStore {
	return &mockStore{
		loadAll: func(context.Context, string) ([]*domain.Recipe, error) { return recipes, nil },
		save:    func(context.Context) error { return nil },
		delete:  func(context.Context, *domain.Recipe) error { return nil },
		tracks:  func(r *domain.Recipe) bool { return slices.Contains(recipes, r) },
	}
}

// seededStore returns a memory store holding the given recipes, saved.
func seededStore(t require.TestingT, recipes ...*domain.Recipe) *repo.Store {
	store := repo.NewMemoryStore()
	ctx := context.Background()
	for _, r := range recipes {
		require.NoError(t, store.Insert(ctx, r))
	}
	require.NoError(t, store.Save(ctx))
	return store
}

// loadedCatalog builds a catalog over store and loads it with an empty search.
func loadedCatalog(t require.TestingT, store repo.RecipeStore) *service.Catalog {
	c := service.NewCatalog(store)
	require.NoError(t, c.Reload(context.Background()))
	return c
}

func listTitles(c *service.Catalog) []string {
	rows := c.List()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

// ---- search ----------------------------------------------------------------

func TestCatalog_SetSearchText_FiltersCaseInsensitive(t *testing.T) {
	store := seededStore(t,
		recipeFixture("Pasta", false),
		recipeFixture("Pastel de nata", false),
		recipeFixture("Soup", false),
	)
	c := loadedCatalog(t, store)
	ctx := context.Background()

	require.NoError(t, c.SetSearchText(ctx, "PAS"))
	assert.Equal(t, []string{"Pasta", "Pastel de nata"}, listTitles(c))
	assert.Equal(t, "PAS", c.SearchText())

	require.NoError(t, c.SetSearchText(ctx, ""))
	assert.Equal(t, []string{"Pasta", "Pastel de nata", "Soup"}, listTitles(c),
		"empty search returns everything")
}

func TestCatalog_SetSearchText_PassesTextToStore(t *testing.T) {
	var got []string
	store := &mockStore{
		loadAll: func(_ context.Context, search string) ([]*domain.Recipe, error) {
			got = append(got, search)
			return nil, nil
		},
	}
	c := service.NewCatalog(store)

	require.NoError(t, c.SetSearchText(context.Background(), "bread"))

	assert.Equal(t, []string{"bread"}, got)
}

func TestCatalog_SetSearchText_ReappliesSortMode(t *testing.T) {
	store := seededStore(t,
		recipeFixture("Apple Pie", true),
		recipeFixture("Apple Crumble", false),
		recipeFixture("Soup", true),
	)
	c := loadedCatalog(t, store)
	c.SetSortMode(domain.SortFavoritesOnly)

	require.NoError(t, c.SetSearchText(context.Background(), "apple"))

	assert.Equal(t, []string{"Apple Pie"}, listTitles(c))
}

func TestCatalog_SetSearchText_FailureKeepsPreviousView(t *testing.T) {
	fail := false
	store := &mockStore{
		loadAll: func(context.Context, string) ([]*domain.Recipe, error) {
			if fail {
				return nil, fmt.Errorf("load: %w", domain.ErrPersistence)
			}
			return []*domain.Recipe{recipeFixture("Soup", false)}, nil
		},
	}
	c := loadedCatalog(t, store)

	fail = true
	err := c.SetSearchText(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, "", c.SearchText())
	assert.Equal(t, []string{"Soup"}, listTitles(c))
}

// ---- sort ------------------------------------------------------------------

func TestCatalog_SortScenario_BananaBreadApplePie(t *testing.T) {
	// Store order deliberately differs from title order.
	c := loadedCatalog(t, fixedStore(
		recipeFixture("Banana Bread", false),
		recipeFixture("Apple Pie", true),
	))

	c.SetSortMode(domain.SortAlphabetical)
	assert.Equal(t, []string{"Apple Pie", "Banana Bread"}, listTitles(c))

	c.SetSortMode(domain.SortFavoritesOnly)
	assert.Equal(t, []string{"Apple Pie"}, listTitles(c))

	c.SetSortMode(domain.SortNone)
	assert.Equal(t, []string{"Banana Bread", "Apple Pie"}, listTitles(c),
		"none restores store order")
}

func TestCatalog_SetSortMode_DoesNotReloadStore(t *testing.T) {
	calls := 0
	store := &mockStore{
		loadAll: func(context.Context, string) ([]*domain.Recipe, error) {
			calls++
			return []*domain.Recipe{recipeFixture("Soup", false)}, nil
		},
	}
	c := loadedCatalog(t, store)

	c.SetSortMode(domain.SortAlphabetical)
	c.SetSortMode(domain.SortFavoritesOnly)
	c.SetSortMode(domain.SortNone)

	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.SortNone, c.SortMode())
}

func TestCatalog_SortAlphabetical_OrdinalAndStable(t *testing.T) {
	first := recipeFixture("Soup", false)
	second := recipeFixture("Soup", true)
	c := loadedCatalog(t, fixedStore(
		first,
		recipeFixture("apple", false),
		second,
		recipeFixture("Zucchini", false),
	))

	c.SetSortMode(domain.SortAlphabetical)
	rows := c.List()

	assert.Equal(t, []string{"Soup", "Soup", "Zucchini", "apple"}, listTitles(c),
		"ordinal comparison puts upper case before lower case")
	assert.Equal(t, first.ID, rows[0].ID, "equal titles keep their original order")
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestCatalog_List_EmptyIsNonNil(t *testing.T) {
	c := service.NewCatalog(repo.NewMemoryStore())

	rows := c.List()

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCatalog_List_RowsCarryViewIndex(t *testing.T) {
	c := loadedCatalog(t, seededStore(t,
		recipeFixture("B", true),
		recipeFixture("A", false),
	))

	rows := c.List()

	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "A", rows[0].Title)
	assert.Equal(t, 1, rows[1].Index)
	assert.True(t, rows[1].IsFavorite)
}

// ---- favorites -------------------------------------------------------------

func TestCatalog_ToggleFavorite_RoundTrip(t *testing.T) {
	r := recipeFixture("Pasta", false)
	c := loadedCatalog(t, seededStore(t, r))
	ctx := context.Background()

	require.NoError(t, c.ToggleFavorite(ctx, r.ID))
	got, err := c.Get(r.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	require.NoError(t, c.ToggleFavorite(ctx, r.ID))
	got, err = c.Get(r.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorite)
}

func TestCatalog_ToggleFavorite_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.db")

	store, err := repo.Open(ctx, path)
	require.NoError(t, err)
	r := recipeFixture("Pasta", false)
	require.NoError(t, store.Insert(ctx, r))
	require.NoError(t, store.Save(ctx))

	require.NoError(t, loadedCatalog(t, store).ToggleFavorite(ctx, r.ID))
	require.NoError(t, store.Close())

	reopened, err := repo.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := loadedCatalog(t, reopened).Get(r.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
}

func TestCatalog_ToggleFavorite_NotFound(t *testing.T) {
	c := loadedCatalog(t, seededStore(t, recipeFixture("Pasta", false)))

	err := c.ToggleFavorite(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog_ToggleFavorite_StaleAfterSearch(t *testing.T) {
	soup := recipeFixture("Soup", false)
	c := loadedCatalog(t, seededStore(t, soup, recipeFixture("Pasta", false)))
	require.NoError(t, c.SetSearchText(context.Background(), "pasta"))

	err := c.ToggleFavorite(context.Background(), soup.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound, "a recipe filtered out of the loaded set is stale")
}

func TestCatalog_ToggleFavorite_SaveFailureRestoresFlag(t *testing.T) {
	r := recipeFixture("Pasta", false)
	store := fixedStore(r)
	store.save = func(context.Context) error { return fmt.Errorf("flush: %w", domain.ErrPersistence) }
	c := loadedCatalog(t, store)
	c.SetSortMode(domain.SortFavoritesOnly)

	err := c.ToggleFavorite(context.Background(), r.ID)

	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, r.IsFavorite, "flag must not claim a value that was never saved")
	assert.Empty(t, c.List())
}

func TestCatalog_ToggleFavorite_UpdatesFavoritesView(t *testing.T) {
	r := recipeFixture("Pasta", false)
	c := loadedCatalog(t, seededStore(t, r))
	c.SetSortMode(domain.SortFavoritesOnly)
	require.Empty(t, c.List())

	require.NoError(t, c.ToggleFavorite(context.Background(), r.ID))

	assert.Equal(t, []string{"Pasta"}, listTitles(c))
}

// ---- delete ----------------------------------------------------------------

func TestCatalog_DeleteAt_ResolvesAgainstDisplayedView(t *testing.T) {
	zucchini := recipeFixture("Zucchini", false)
	apple := recipeFixture("Apple", true)
	mango := recipeFixture("Mango", true)

	var deleted []*domain.Recipe
	store := fixedStore(zucchini, apple, mango)
	store.delete = func(_ context.Context, r *domain.Recipe) error {
		deleted = append(deleted, r)
		return nil
	}
	c := loadedCatalog(t, store)
	c.SetSortMode(domain.SortFavoritesOnly)

	// View is [Apple, Mango]; store order is [Zucchini, Apple, Mango].
	require.NoError(t, c.DeleteAt(context.Background(), 1))

	require.Len(t, deleted, 1)
	assert.Same(t, mango, deleted[0])
	assert.Equal(t, []string{"Apple"}, listTitles(c))
}

func TestCatalog_DeleteAt_AlphabeticalViewOverRealStore(t *testing.T) {
	store := seededStore(t,
		recipeFixture("Banana Bread", false),
		recipeFixture("Apple Pie", true),
		recipeFixture("Carrot Cake", false),
	)
	c := loadedCatalog(t, store)
	c.SetSortMode(domain.SortAlphabetical)
	ctx := context.Background()

	require.NoError(t, c.DeleteAt(ctx, 1))

	assert.Equal(t, []string{"Apple Pie", "Carrot Cake"}, listTitles(c))
	remaining, err := store.LoadAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, r := range remaining {
		assert.NotEqual(t, "Banana Bread", r.Title)
	}
}

func TestCatalog_DeleteAt_OutOfRange(t *testing.T) {
	c := loadedCatalog(t, seededStore(t, recipeFixture("Pasta", false)))
	ctx := context.Background()

	assert.ErrorIs(t, c.DeleteAt(ctx, -1), domain.ErrIndexOutOfRange)
	assert.ErrorIs(t, c.DeleteAt(ctx, 1), domain.ErrIndexOutOfRange)

	require.NoError(t, c.DeleteAt(ctx, 0))
	assert.ErrorIs(t, c.DeleteAt(ctx, 0), domain.ErrIndexOutOfRange,
		"an index into an already-removed row is stale")
}

func TestCatalog_DeleteAt_SaveFailureKeepsRow(t *testing.T) {
	store := fixedStore(recipeFixture("Pasta", false))
	store.save = func(context.Context) error { return domain.ErrPersistence }
	c := loadedCatalog(t, store)

	err := c.DeleteAt(context.Background(), 0)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, []string{"Pasta"}, listTitles(c))
}

func TestCatalog_DeleteAt_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("db exploded")
	store := fixedStore(recipeFixture("Pasta", false))
	store.delete = func(context.Context, *domain.Recipe) error { return storeErr }
	c := loadedCatalog(t, store)

	err := c.DeleteAt(context.Background(), 0)

	// The catalog should propagate store errors unchanged.
	assert.ErrorIs(t, err, storeErr)
}

// ---- lookup ----------------------------------------------------------------

func TestCatalog_Get_ReturnsCopy(t *testing.T) {
	r := recipeFixture("Pasta", false)
	r.Ingredients = []string{"Tomato"}
	c := loadedCatalog(t, seededStore(t, r))

	got, err := c.Get(r.ID)
	require.NoError(t, err)
	got.Ingredients[0] = "Changed"

	assert.Equal(t, "Tomato", r.Ingredients[0])
}

func TestCatalog_Open_NotFound(t *testing.T) {
	c := loadedCatalog(t, seededStore(t))

	_, err := c.Open(uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
