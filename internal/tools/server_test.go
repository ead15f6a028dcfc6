package tools

import (
	"context"
	"errors"
	"testing"

	"meal-planner/internal/meals"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory meals.Store.
type memStore struct {
	meals   []meals.Meal
	listErr error
	lastQ   meals.Query
}

func (s *memStore) ListMeals(_ context.Context, q meals.Query) ([]meals.Meal, error) {
	s.lastQ = q
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []meals.Meal
	for _, m := range s.meals {
		if q.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) UpdateMeal(_ context.Context, id string, u meals.Update) (meals.Meal, error) {
	for i, m := range s.meals {
		if m.ID == id {
			s.meals[i] = u.Apply(m)
			return s.meals[i], nil
		}
	}
	return meals.Meal{}, meals.ErrNotFound
}

func (s *memStore) AddMeal(_ context.Context, m meals.Meal) (meals.Meal, error) {
	m.ID = "new-id"
	s.meals = append(s.meals, m)
	return m, nil
}

func newTestServer(t *testing.T, store meals.Store) *Server {
	t.Helper()
	s, err := NewServer(store, "test", nil)
	require.NoError(t, err)
	return s
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func sampleStore() *memStore {
	return &memStore{meals: []meals.Meal{
		{ID: "1", Name: "Pâtes au thon", Date: "2026-02-17", Heure: "Soir", Ingredients: []string{"pâtes", "thon"}},
		{ID: "2", Name: "Test Meal", Date: "2023-10-27", Heure: "soir", Ingredients: []string{"Chicken", "Rice"}, Recipe: "http://recipe.com"},
		{ID: "3", Name: "Pâtes pesto", Date: "2026-02-10", Heure: "Midi"},
	}}
}

func TestNewServer_NilStore(t *testing.T) {
	_, err := NewServer(nil, "test", nil)
	assert.Error(t, err)
}

func TestGetRecentMeals(t *testing.T) {
	store := sampleStore()
	s := newTestServer(t, store)

	res, _, err := s.handleGetRecentMeals(context.Background(), nil, GetRecentMealsParams{Limit: 10})
	require.NoError(t, err)
	text := resultText(t, res)

	assert.Contains(t, text, "Here are the most recent meals:\n\n")
	assert.Contains(t, text, "- **Test Meal** (2023-10-27, soir)\n")
	assert.Contains(t, text, "  Ingredients: Chicken, Rice (Recipe: http://recipe.com)\n")
	assert.Contains(t, text, "- **Pâtes pesto** (2026-02-10, Midi)\n  Ingredients: No tags\n")
	assert.Equal(t, 10, store.lastQ.Limit)
}

func TestGetRecentMeals_DefaultLimitAndHeaders(t *testing.T) {
	tests := []struct {
		name   string
		params GetRecentMealsParams
		header string
	}{
		{name: "search", params: GetRecentMealsParams{SearchQuery: "pâtes"}, header: "Here are the meals matching 'pâtes':"},
		{name: "both bounds", params: GetRecentMealsParams{StartDate: "2026-01-01", EndDate: "2026-12-31"}, header: "Here are the meals from 2026-01-01 to 2026-12-31:"},
		{name: "open start", params: GetRecentMealsParams{EndDate: "2026-12-31"}, header: "Here are the meals from beginning to 2026-12-31:"},
		{name: "open end", params: GetRecentMealsParams{StartDate: "2026-01-01"}, header: "Here are the meals from 2026-01-01 to now:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := sampleStore()
			res, _, err := newTestServer(t, store).handleGetRecentMeals(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.Contains(t, resultText(t, res), tt.header)
			assert.Equal(t, defaultLimit, store.lastQ.Limit)
		})
	}
}

func TestGetRecentMeals_EmptyAndError(t *testing.T) {
	res, _, err := newTestServer(t, &memStore{}).handleGetRecentMeals(context.Background(), nil, GetRecentMealsParams{})
	require.NoError(t, err)
	assert.Equal(t, "No meals found within the specified criteria.", resultText(t, res))

	failing := &memStore{listErr: errors.New("notion api error: status=401")}
	res, _, err = newTestServer(t, failing).handleGetRecentMeals(context.Background(), nil, GetRecentMealsParams{})
	require.NoError(t, err, "store errors are rendered, not raised")
	assert.Equal(t, "Error fetching meals: notion api error: status=401", resultText(t, res))
}

func TestUpdateMeal(t *testing.T) {
	store := sampleStore()
	s := newTestServer(t, store)
	recipe := "https://example.com/thon"
	heure := "dinner"

	res, _, err := s.handleUpdateMeal(context.Background(), nil, UpdateMealParams{
		NameSearch: "thon",
		Heure:      &heure,
		Recipe:     &recipe,
	})
	require.NoError(t, err)
	text := resultText(t, res)

	assert.Contains(t, text, "Updated meal:")
	assert.Contains(t, text, "- **Pâtes au thon** (2026-02-17, Soir)\n  Ingredients: pâtes, thon (Recipe: https://example.com/thon)\n")
	assert.Equal(t, recipe, store.meals[0].Recipe)
}

func TestUpdateMeal_Failures(t *testing.T) {
	name := "Renamed"
	tests := []struct {
		name   string
		params UpdateMealParams
		want   string
	}{
		{name: "nothing to change", params: UpdateMealParams{MealID: "1"}, want: "No changes requested."},
		{name: "no target", params: UpdateMealParams{NewName: &name}, want: "Error updating meal: either meal_id or name_search is required"},
		{name: "ambiguous", params: UpdateMealParams{NameSearch: "pâtes", NewName: &name}, want: "Error updating meal: meal search is ambiguous"},
		{name: "no match", params: UpdateMealParams{NameSearch: "couscous", NewName: &name}, want: "Error updating meal: meal not found"},
		{name: "unknown id", params: UpdateMealParams{MealID: "42", NewName: &name}, want: "Error updating meal: meal not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := newTestServer(t, sampleStore()).handleUpdateMeal(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestAddMeal(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store)

	res, _, err := s.handleAddMeal(context.Background(), nil, AddMealParams{
		Name:        " Wok de poulet ",
		Date:        "2026-02-14",
		Ingredients: []string{"poulet", "légumes"},
	})
	require.NoError(t, err)

	assert.Contains(t, resultText(t, res), "- **Wok de poulet** (2026-02-14, Soir)\n  Ingredients: poulet, légumes\n")
	require.Len(t, store.meals, 1)
	assert.Equal(t, meals.HeureSoir, store.meals[0].Heure)

	res, _, err = s.handleAddMeal(context.Background(), nil, AddMealParams{Name: "No date"})
	require.NoError(t, err)
	assert.Equal(t, "Error adding meal: name and date are required", resultText(t, res))
	assert.Len(t, store.meals, 1)
}
