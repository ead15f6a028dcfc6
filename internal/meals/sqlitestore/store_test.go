package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
	"meal-planner/internal/meals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "meals.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db.SQL)
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	for _, m := range []meals.Meal{
		{Name: "Wok de poulet et légumes", Date: "2026-02-14", Heure: "Soir", Ingredients: []string{"poulet", "légumes"}},
		{Name: "Pâtes au thon", Date: "2026-02-17", Heure: "soir", Ingredients: []string{"pâtes", "thon"}},
		{Name: "Omelette aux pommes de terre", Date: "2026-02-21", Heure: "Midi"},
		{Name: "Lasagnes à la bolognaise", Date: "2026-02-21", Heure: "Soir", Recipe: "https://example.com/lasagnes"},
	} {
		_, err := s.AddMeal(context.Background(), m)
		require.NoError(t, err)
	}
}

func TestListMeals(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	all, err := s.ListMeals(ctx, meals.Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Lasagnes à la bolognaise", all[0].Name, "evening comes before noon on the same day")
	assert.Equal(t, "Omelette aux pommes de terre", all[1].Name)
	assert.Equal(t, "Wok de poulet et légumes", all[3].Name)
	assert.Equal(t, []string{}, all[1].Ingredients)

	tests := []struct {
		name  string
		query meals.Query
		want  []string
	}{
		{name: "limit", query: meals.Query{Limit: 1}, want: []string{"Lasagnes à la bolognaise"}},
		{name: "date range", query: meals.Query{StartDate: "2026-02-15", EndDate: "2026-02-20"}, want: []string{"Pâtes au thon"}},
		{name: "search", query: meals.Query{Search: "POULET"}, want: []string{"Wok de poulet et légumes"}},
		{name: "nothing", query: meals.Query{StartDate: "2027-01-01"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListMeals(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, m := range got {
				names = append(names, m.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestUpdateMeal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddMeal(ctx, meals.Meal{Name: "Soupe", Date: "2026-02-15", Heure: "Soir"})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	heure := "midi"
	updated, err := s.UpdateMeal(ctx, added.ID, meals.Update{Heure: &heure, Ingredients: []string{"légumes", "pain"}})
	require.NoError(t, err)
	assert.Equal(t, "Midi", updated.Heure)

	got, err := s.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = s.UpdateMeal(ctx, "missing", meals.Update{Heure: &heure})
	assert.ErrorIs(t, err, meals.ErrNotFound)
}

func TestAddMeal_Validation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddMeal(context.Background(), meals.Meal{Name: "No date"})
	assert.Error(t, err)
}

func TestResolveTargetAgainstSQLite(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	id, err := meals.ResolveTarget(context.Background(), s, "", "thon")
	require.NoError(t, err)

	m, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Pâtes au thon", m.Name)
}
