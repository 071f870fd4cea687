// Package preferences stores each owner's dish preference lists.
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/planner"
)

// Repository is a database-backed repository for preference snapshots.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Get returns the owner's preferences. found is false when none were saved.
func (r *Repository) Get(ctx context.Context, ownerID string) (prefs planner.Preferences, found bool, err error) {
	var data string
	err = r.db.QueryRowContext(ctx, `SELECT prefs_data FROM preferences WHERE owner_id = ?`, ownerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Preferences{}, false, nil
	}
	if err != nil {
		return planner.Preferences{}, false, fmt.Errorf("failed to get preferences for owner %s: %w", ownerID, err)
	}
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return planner.Preferences{}, false, fmt.Errorf("failed to unmarshal preferences for owner %s: %w", ownerID, err)
	}
	return prefs, true, nil
}

// Save normalizes and stores the owner's preferences, replacing earlier ones.
// The stored snapshot is returned.
func (r *Repository) Save(ctx context.Context, ownerID string, prefs planner.Preferences) (planner.Preferences, error) {
	prefs = prefs.Normalize()
	data, err := json.Marshal(prefs)
	if err != nil {
		return planner.Preferences{}, fmt.Errorf("failed to marshal preferences for owner %s: %w", ownerID, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO preferences (owner_id, prefs_data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET prefs_data = excluded.prefs_data, updated_at = excluded.updated_at`,
		ownerID, string(data), r.now().Unix())
	if err != nil {
		return planner.Preferences{}, fmt.Errorf("failed to save preferences for owner %s: %w", ownerID, err)
	}
	return prefs, nil
}

// Catalog lists the dishes offered to a new user before any are chosen.
func Catalog() planner.Preferences {
	return planner.Preferences{
		Breakfast: []string{
			"Poha", "Daliya", "Upma", "Aloo Paratha", "Paneer Paratha", "Gobhi Paratha",
			"Masala Dosa", "Idli Sambhar", "Veg Sandwich", "Cornflakes",
		},
		ProteinLegumeA: []string{
			"Moong Dal", "Masoor Dal", "Chana Dal", "Toor (Arhar) Dal", "Urad Dal",
			"Rajma", "Chhole", "Lobia",
		},
		Vegetable: []string{
			"Potato", "Paneer", "Mushroom", "Spinach", "Cauliflower", "Broccoli", "Cabbage",
			"Beans", "Peas", "Brinjal", "Okra (Bhindi)", "Capsicum", "Bottle Gourd (Lauki)",
		},
	}
}
