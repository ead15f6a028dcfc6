package meals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listOnlyStore struct {
	Store
	meals []Meal
}

func (s *listOnlyStore) ListMeals(_ context.Context, q Query) ([]Meal, error) {
	var out []Meal
	for _, m := range s.meals {
		if q.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestNormalizeHeure(t *testing.T) {
	tests := map[string]string{
		"midi":    HeureMidi,
		" Midi ":  HeureMidi,
		"soir":    HeureSoir,
		"Dinner":  HeureSoir,
		"goûter":  "goûter",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeure(in), "input %q", in)
	}
}

func TestQueryMatches(t *testing.T) {
	m := Meal{Name: "Lasagnes à la bolognaise", Date: "2026-02-21"}

	assert.True(t, Query{}.Matches(m))
	assert.True(t, Query{StartDate: "2026-02-21", EndDate: "2026-02-21"}.Matches(m))
	assert.False(t, Query{StartDate: "2026-02-22"}.Matches(m))
	assert.False(t, Query{EndDate: "2026-02-20"}.Matches(m))
	assert.True(t, Query{Search: "LASAGNES"}.Matches(m))
	assert.False(t, Query{Search: "tacos"}.Matches(m))
}

func TestUpdateApply(t *testing.T) {
	name := "Gratin"
	heure := "dinner"
	m := Meal{ID: "1", Name: "Soupe", Date: "2026-01-01", Heure: HeureMidi, Ingredients: []string{"poireau"}}

	assert.True(t, Update{}.IsEmpty())

	u := Update{Name: &name, Heure: &heure, Ingredients: []string{"pomme de terre"}}
	assert.False(t, u.IsEmpty())

	got := u.Apply(m)
	assert.Equal(t, Meal{ID: "1", Name: "Gratin", Date: "2026-01-01", Heure: HeureSoir, Ingredients: []string{"pomme de terre"}}, got)
	assert.Equal(t, "Soupe", m.Name, "original is untouched")
}

func TestResolveTarget(t *testing.T) {
	store := &listOnlyStore{meals: []Meal{
		{ID: "a", Name: "Pâtes au thon", Date: "2026-02-17"},
		{ID: "b", Name: "Pâtes carbonara", Date: "2026-02-10"},
		{ID: "c", Name: "Curry", Date: "2026-02-19"},
		{ID: "d", Name: "Curry de chou-fleur", Date: "2026-02-12"},
	}}
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		search  string
		want    string
		wantErr error
	}{
		{name: "explicit id wins", id: "zzz", search: "Curry", want: "zzz"},
		{name: "single match", search: "thon", want: "a"},
		{name: "exact name among several", search: "curry", want: "c"},
		{name: "no match", search: "pizza", wantErr: ErrNotFound},
		{name: "ambiguous", search: "pâtes", wantErr: ErrAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(ctx, store, tt.id, tt.search)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveTarget(ctx, store, "", "")
	assert.Error(t, err)
}
