package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is the sqlite-backed plan Store. Plans are stored as one JSON
// blob per (user, week), matching the sparse grid shape.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

var _ Store = (*Repository)(nil)

// Load retrieves the stored plan for a user and week. Returns (nil, nil)
// when none exists.
func (r *Repository) Load(ctx context.Context, userID string, key WeekKey) (*WeekPlan, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT plan_data FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, key.String(),
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}

	var p WeekPlan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan JSON: %w", err)
	}
	if p.Grid == nil {
		p.Grid = make(map[Day]map[MealSlot]MealAssignment)
	}
	return &p, nil
}

// Save upserts the plan for a user and week.
func (r *Repository) Save(ctx context.Context, userID string, key WeekKey, p *WeekPlan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan to JSON: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, week_start, plan_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, week_start)
		 DO UPDATE SET plan_data = excluded.plan_data, updated_at = excluded.updated_at`,
		userID, key.String(), string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan: %w", err)
	}
	return nil
}

// ListWeeks returns the week keys a user has plans stored for, most recent
// first.
func (r *Repository) ListWeeks(ctx context.Context, userID string) ([]WeekKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT week_start FROM meal_plans WHERE user_id = ? ORDER BY week_start DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan weeks: %w", err)
	}
	defer rows.Close()

	var keys []WeekKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan plan week: %w", err)
		}
		keys = append(keys, WeekKey(raw))
	}
	return keys, rows.Err()
}
