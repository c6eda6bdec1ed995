package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-notification-api/internal/domain"
)

type RecipientRepo struct {
	db *DB
}

func NewRecipientRepo(db *DB) *RecipientRepo {
	return &RecipientRepo{db: db}
}

func insertRecipient(ctx context.Context, db *DB, tx *sql.Tx, rec *domain.Recipient) error {
	_, err := db.txExec(ctx, tx, `INSERT INTO recipients (id, notification_id, recipient_id, seen_by_user, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.NotificationID, rec.RecipientID, rec.SeenByUser, formatTime(rec.CreatedAt))
	return err
}

// ListByNotification returns rows in insertion order; ids are monotonic.
func (r *RecipientRepo) ListByNotification(ctx context.Context, notificationID string) ([]domain.Recipient, error) {
	rows, err := r.db.query(ctx, `SELECT id, notification_id, recipient_id, seen_by_user, created_at
		FROM recipients WHERE notification_id = ? ORDER BY id`, notificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Recipient{}
	for rows.Next() {
		var (
			rec       domain.Recipient
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.NotificationID, &rec.RecipientID, &rec.SeenByUser, &createdAt); err != nil {
			return nil, err
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
