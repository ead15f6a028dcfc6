// Package sqlitestore implements meals.Store on the local SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"meal-planner/internal/meals"

	"github.com/google/uuid"
)

const defaultLimit = 30

// Store keeps meals in the local database.
type Store struct {
	db *sql.DB
}

// New creates a Store on an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const listQuery = `
SELECT id, name, date, heure, ingredients, recipe
FROM meals
WHERE (?1 = '' OR date >= ?1)
  AND (?2 = '' OR date <= ?2)
  AND (?3 = '' OR lower(name) LIKE '%' || lower(?3) || '%')
ORDER BY date DESC, CASE heure WHEN 'Soir' THEN 0 ELSE 1 END
LIMIT ?4`

// ListMeals returns matching meals, newest first.
func (s *Store) ListMeals(ctx context.Context, q meals.Query) ([]meals.Meal, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, listQuery, q.StartDate, q.EndDate, q.Search, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var out []meals.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(row scanner) (meals.Meal, error) {
	var (
		m           meals.Meal
		ingredients string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Date, &m.Heure, &ingredients, &m.Recipe); err != nil {
		return meals.Meal{}, err
	}
	if err := json.Unmarshal([]byte(ingredients), &m.Ingredients); err != nil {
		return meals.Meal{}, fmt.Errorf("meal %s has malformed ingredients: %w", m.ID, err)
	}
	return m, nil
}

// Get loads a single meal.
func (s *Store) Get(ctx context.Context, id string) (meals.Meal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, date, heure, ingredients, recipe FROM meals WHERE id = ?`, id)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return meals.Meal{}, fmt.Errorf("%w: %s", meals.ErrNotFound, id)
	}
	return m, err
}

// UpdateMeal applies u to the stored meal.
func (s *Store) UpdateMeal(ctx context.Context, id string, u meals.Update) (meals.Meal, error) {
	if u.IsEmpty() {
		return meals.Meal{}, errors.New("no fields to update")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return meals.Meal{}, err
	}
	m := u.Apply(current)

	ingredients, err := encodeIngredients(m.Ingredients)
	if err != nil {
		return meals.Meal{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE meals SET name = ?, date = ?, heure = ?, ingredients = ?, recipe = ? WHERE id = ?`,
		m.Name, m.Date, m.Heure, ingredients, m.Recipe, id)
	if err != nil {
		return meals.Meal{}, fmt.Errorf("failed to update meal %s: %w", id, err)
	}
	return m, nil
}

// AddMeal inserts m, assigning an id when it has none.
func (s *Store) AddMeal(ctx context.Context, m meals.Meal) (meals.Meal, error) {
	if m.Name == "" || m.Date == "" {
		return meals.Meal{}, errors.New("meal name and date are required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Heure = meals.NormalizeHeure(m.Heure)

	ingredients, err := encodeIngredients(m.Ingredients)
	if err != nil {
		return meals.Meal{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meals (id, name, date, heure, ingredients, recipe) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Date, m.Heure, ingredients, m.Recipe)
	if err != nil {
		return meals.Meal{}, fmt.Errorf("failed to insert meal: %w", err)
	}
	return m, nil
}

func encodeIngredients(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode ingredients: %w", err)
	}
	return string(b), nil
}
