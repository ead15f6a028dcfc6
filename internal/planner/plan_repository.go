package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"meal-planner/internal/shopping"
)

// StoredPlan is an accepted plan as persisted.
type StoredPlan struct {
	ID           int64
	RunID        string
	Start        string
	End          string
	BestEffort   bool
	Revisions    int
	Plan         WeekPlan
	ShoppingList shopping.List
	Tips         string
	CreatedAt    time.Time
}

// PlanRepository is a database-backed repository for accepted meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

type planData struct {
	Plan         WeekPlan      `json:"plan"`
	ShoppingList shopping.List `json:"shopping_list"`
}

// Save inserts the result of a finished run and returns its id.
func (r *PlanRepository) Save(ctx context.Context, res Result) (int64, error) {
	data, err := json.Marshal(planData{Plan: res.Plan, ShoppingList: res.ShoppingList})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan: %w", err)
	}

	out, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (run_id, start_date, end_date, best_effort, revisions, plan_data, tips, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Start.Format(DateLayout),
		res.End.Format(DateLayout),
		res.BestEffort,
		res.Revisions,
		string(data),
		res.Tips,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return out.LastInsertId()
}

// ListRecent retrieves the N most recent plans, newest first.
func (r *PlanRepository) ListRecent(ctx context.Context, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, start_date, end_date, best_effort, revisions, plan_data, tips, created_at
		FROM meal_plans
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans: %w", err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		var (
			p         StoredPlan
			raw       string
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.RunID, &p.Start, &p.End, &p.BestEffort, &p.Revisions, &raw, &p.Tips, &createdAt); err != nil {
			return nil, err
		}

		var data planData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("plan %d has malformed data: %w", p.ID, err)
		}
		p.Plan = data.Plan
		p.ShoppingList = data.ShoppingList
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ExistsForWeek reports whether a plan starting on start was already saved.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, start time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE start_date = ?`, start.Format(DateLayout)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check existing plan: %w", err)
	}
	return n > 0, nil
}
