package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository handles persistence of generated shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores a generated list in the user's history and returns its ID.
func (r *Repository) Save(ctx context.Context, list *StoredList) (int64, error) {
	itemsJSON, err := json.Marshal(list.List)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	var sourceJSON sql.NullString
	if len(list.SourceRecipeIDs) > 0 {
		raw, err := json.Marshal(list.SourceRecipeIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal source recipe IDs: %w", err)
		}
		sourceJSON = sql.NullString{String: string(raw), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (user_id, name, items, source_recipes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		list.UserID, list.Name, string(itemsJSON), sourceJSON, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list ID: %w", err)
	}
	return id, nil
}

// ListByUser retrieves a user's saved shopping lists, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]StoredList, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, items, source_recipes, created_at
		 FROM shopping_lists WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	defer rows.Close()

	var lists []StoredList
	for rows.Next() {
		var (
			stored     StoredList
			itemsJSON  string
			sourceJSON sql.NullString
		)
		if err := rows.Scan(&stored.ID, &stored.UserID, &stored.Name, &itemsJSON, &sourceJSON, &stored.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &stored.List); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
		}
		if sourceJSON.Valid {
			if err := json.Unmarshal([]byte(sourceJSON.String), &stored.SourceRecipeIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal source recipe IDs: %w", err)
			}
		}
		lists = append(lists, stored)
	}
	return lists, rows.Err()
}

// Get retrieves one stored list by ID, or nil when absent.
func (r *Repository) Get(ctx context.Context, id int64) (*StoredList, error) {
	var (
		stored     StoredList
		itemsJSON  string
		sourceJSON sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, items, source_recipes, created_at
		 FROM shopping_lists WHERE id = ?`, id,
	).Scan(&stored.ID, &stored.UserID, &stored.Name, &itemsJSON, &sourceJSON, &stored.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &stored.List); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	if sourceJSON.Valid {
		if err := json.Unmarshal([]byte(sourceJSON.String), &stored.SourceRecipeIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source recipe IDs: %w", err)
		}
	}
	return &stored, nil
}
