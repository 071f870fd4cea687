package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxPerOwner is how many notifications are kept for each owner.
	MaxPerOwner = 50
	// RecentWindow bounds ListRecent.
	RecentWindow = 7 * 24 * time.Hour
)

// Notification is a stored reminder.
type Notification struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Repository is the per-owner notification inbox.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Add stores msg for the owner and drops anything beyond the newest MaxPerOwner.
func (r *Repository) Add(ctx context.Context, ownerID string, msg Message) (Notification, error) {
	n := Notification{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     msg.Title,
		Body:      msg.Body,
		CreatedAt: r.now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notifications (id, owner_id, title, body, created_at, read) VALUES (?, ?, ?, ?, ?, 0)`,
		n.ID, n.OwnerID, n.Title, n.Body, n.CreatedAt.UnixMilli())
	if err != nil {
		return Notification{}, fmt.Errorf("failed to insert notification for owner %s: %w", ownerID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE owner_id = ? AND id NOT IN (
			SELECT id FROM notifications WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, ownerID, ownerID, MaxPerOwner)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to prune notifications for owner %s: %w", ownerID, err)
	}

	if err := tx.Commit(); err != nil {
		return Notification{}, fmt.Errorf("failed to commit notification: %w", err)
	}
	return n, nil
}

// ListRecent returns the owner's notifications from the last seven days, newest first.
func (r *Repository) ListRecent(ctx context.Context, ownerID string) ([]Notification, error) {
	since := r.now().Add(-RecentWindow).UnixMilli()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, body, created_at, read FROM notifications
		 WHERE owner_id = ? AND created_at >= ? ORDER BY created_at DESC, rowid DESC`,
		ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var (
			n       Notification
			created int64
		)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Body, &created, &n.Read); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.CreatedAt = time.UnixMilli(created).UTC()
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkAllRead flags every notification of the owner as read.
func (r *Repository) MarkAllRead(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE owner_id = ? AND read = 0`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for owner %s: %w", ownerID, err)
	}
	return res.RowsAffected()
}

// Count returns how many notifications the owner has stored.
func (r *Repository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notifications for owner %s: %w", ownerID, err)
	}
	return n, nil
}
