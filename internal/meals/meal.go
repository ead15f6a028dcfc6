// Package meals holds the meal history model and the store interface the
// planner and tool server read from.
package meals

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Meal slots as stored in the history.
const (
	HeureMidi = "Midi"
	HeureSoir = "Soir"
)

var (
	ErrNotFound  = errors.New("meal not found")
	ErrAmbiguous = errors.New("meal search is ambiguous")
)

// Meal is one recorded meal.
type Meal struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Heure       string   `json:"heure"`
	Ingredients []string `json:"ingredients,omitempty"`
	Recipe      string   `json:"recipe,omitempty"`
}

// Query selects meals. Dates are inclusive ISO-8601 bounds; empty means unbounded.
type Query struct {
	Limit     int
	StartDate string
	EndDate   string
	Search    string
}

// Matches reports whether m satisfies the date bounds and name search of q.
func (q Query) Matches(m Meal) bool {
	if q.StartDate != "" && m.Date < q.StartDate {
		return false
	}
	if q.EndDate != "" && m.Date > q.EndDate {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

// Update lists the fields to change. Nil fields are left alone.
type Update struct {
	Name        *string
	Date        *string
	Heure       *string
	Ingredients []string
	Recipe      *string
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Date == nil && u.Heure == nil && u.Ingredients == nil && u.Recipe == nil
}

// Apply returns m with the update applied.
func (u Update) Apply(m Meal) Meal {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Date != nil {
		m.Date = *u.Date
	}
	if u.Heure != nil {
		m.Heure = NormalizeHeure(*u.Heure)
	}
	if u.Ingredients != nil {
		m.Ingredients = slices.Clone(u.Ingredients)
	}
	if u.Recipe != nil {
		m.Recipe = *u.Recipe
	}
	return m
}

// Store gives access to the meal history.
type Store interface {
	// ListMeals returns matching meals, newest first.
	ListMeals(ctx context.Context, q Query) ([]Meal, error)
	UpdateMeal(ctx context.Context, id string, u Update) (Meal, error)
	AddMeal(ctx context.Context, m Meal) (Meal, error)
}

// NormalizeHeure maps the spellings found in the wild onto Midi or Soir.
// Unknown values are returned trimmed but otherwise untouched.
func NormalizeHeure(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "midi", "lunch", "noon":
		return HeureMidi
	case "soir", "dinner", "evening":
		return HeureSoir
	}
	return s
}

// FindMeals returns up to ten meals whose name contains nameSearch.
func FindMeals(ctx context.Context, store Store, nameSearch string) ([]Meal, error) {
	return store.ListMeals(ctx, Query{Limit: 10, Search: nameSearch})
}

// ResolveTarget picks the meal id for an update. An explicit id wins; otherwise
// nameSearch must match exactly one meal.
func ResolveTarget(ctx context.Context, store Store, id, nameSearch string) (string, error) {
	if id != "" {
		return id, nil
	}
	if nameSearch == "" {
		return "", errors.New("either meal_id or name_search is required")
	}

	found, err := FindMeals(ctx, store, nameSearch)
	if err != nil {
		return "", err
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no meal matches %q", ErrNotFound, nameSearch)
	case 1:
		return found[0].ID, nil
	}

	// Several candidates: an exact name match still identifies one meal.
	var exact []Meal
	for _, m := range found {
		if strings.EqualFold(m.Name, nameSearch) {
			exact = append(exact, m)
		}
	}
	if len(exact) == 1 {
		return exact[0].ID, nil
	}

	names := make([]string, 0, len(found))
	for _, m := range found {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Date))
	}
	return "", fmt.Errorf("%w: %q matches %s", ErrAmbiguous, nameSearch, strings.Join(names, ", "))
}
