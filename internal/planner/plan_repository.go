package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PlanRepository is a database-backed repository for weekly menus and
// regeneration histories, one of each per owner.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d, now: time.Now}
}

// SaveWeek stores the owner's week, replacing any previous one.
func (r *PlanRepository) SaveWeek(ctx context.Context, ownerID string, week WeekMenu) error {
	data, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("failed to marshal week for owner %s: %w", ownerID, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO menus (owner_id, week_data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET week_data = excluded.week_data, updated_at = excluded.updated_at`,
		ownerID, string(data), r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save week for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadWeek returns the owner's stored week. found is false when there is none.
func (r *PlanRepository) LoadWeek(ctx context.Context, ownerID string) (week WeekMenu, found bool, err error) {
	var data string
	err = r.db.QueryRowContext(ctx, `SELECT week_data FROM menus WHERE owner_id = ?`, ownerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return WeekMenu{}, false, nil
	}
	if err != nil {
		return WeekMenu{}, false, fmt.Errorf("failed to load week for owner %s: %w", ownerID, err)
	}
	if err := json.Unmarshal([]byte(data), &week); err != nil {
		return WeekMenu{}, false, fmt.Errorf("failed to unmarshal week for owner %s: %w", ownerID, err)
	}
	return week, true, nil
}

// DeleteWeek removes the owner's week. Deleting a missing week is not an error.
func (r *PlanRepository) DeleteWeek(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menus WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete week for owner %s: %w", ownerID, err)
	}
	return nil
}

// SaveHistory stores the owner's regeneration history.
func (r *PlanRepository) SaveHistory(ctx context.Context, ownerID string, history RegenerationHistory) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history for owner %s: %w", ownerID, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO regeneration_history (owner_id, history_data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET history_data = excluded.history_data, updated_at = excluded.updated_at`,
		ownerID, string(data), r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save history for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadHistory returns the owner's regeneration history, empty if none was stored.
func (r *PlanRepository) LoadHistory(ctx context.Context, ownerID string) (RegenerationHistory, error) {
	var (
		data    string
		history RegenerationHistory
	)
	err := r.db.QueryRowContext(ctx, `SELECT history_data FROM regeneration_history WHERE owner_id = ?`, ownerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return history, nil
	}
	if err != nil {
		return history, fmt.Errorf("failed to load history for owner %s: %w", ownerID, err)
	}
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return RegenerationHistory{}, fmt.Errorf("failed to unmarshal history for owner %s: %w", ownerID, err)
	}
	return history, nil
}

// ListOwners returns every owner that has a stored week.
func (r *PlanRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT owner_id FROM menus ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan menu owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}
