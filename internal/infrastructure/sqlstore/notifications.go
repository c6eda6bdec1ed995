package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-notification-api/internal/domain"
)

const notificationColumns = `n.notification_id, n.title, n.body, n.type, n.subject, n.sender_id,
	n.action_payload, n.is_deleted, n.deleted_at, n.created_at, n.updated_at`

// NotificationRepo provides typed SQL operations for the notifications table.
type NotificationRepo struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts the notification and its recipients in one transaction.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification, recipients []domain.Recipient) error {
	payload, err := json.Marshal(n.ActionPayload)
	if err != nil {
		return fmt.Errorf("marshal action payload: %w", err)
	}
	var deletedAt sql.NullString
	if n.DeletedAt != nil {
		deletedAt = sql.NullString{String: formatTime(*n.DeletedAt), Valid: true}
	}
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.db.txExec(ctx, tx, `INSERT INTO notifications
			(notification_id, title, body, type, subject, sender_id, action_payload, is_deleted, deleted_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.NotificationID, n.Title, n.Body, string(n.Type), string(n.Subject), nullable(n.SenderID),
			string(payload), n.IsDeleted, deletedAt, formatTime(n.CreatedAt), formatTime(n.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		for i := range recipients {
			if err := insertRecipient(ctx, r.db, tx, &recipients[i]); err != nil {
				return fmt.Errorf("insert recipient %d of %d: %w", i+1, len(recipients), err)
			}
		}
		return nil
	})
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	row := r.db.queryRow(ctx, `SELECT `+notificationColumns+` FROM notifications n WHERE n.notification_id = ?`, notificationID)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return n, err
}

func (r *NotificationRepo) Update(ctx context.Context, notificationID string, patch domain.UpdateNotificationRequest) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *patch.Body)
	}
	args = append(args, notificationID)
	res, err := r.db.exec(ctx, `UPDATE notifications SET `+strings.Join(sets, ", ")+` WHERE notification_id = ?`, args...)
	return affectedOne(res, err, notificationID)
}

func (r *NotificationRepo) SoftDelete(ctx context.Context, notificationID string, at time.Time) error {
	ts := formatTime(at)
	res, err := r.db.exec(ctx, `UPDATE notifications SET is_deleted = ?, deleted_at = ?, updated_at = ? WHERE notification_id = ?`,
		true, ts, ts, notificationID)
	return affectedOne(res, err, notificationID)
}

func (r *NotificationRepo) Count(ctx context.Context, f domain.NotificationFilter) (int, error) {
	where, args := whereClause(f)
	var count int
	err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM notifications n`+where, args...).Scan(&count)
	return count, err
}

func (r *NotificationRepo) List(ctx context.Context, f domain.NotificationFilter, skip, take int) ([]domain.Notification, error) {
	where, args := whereClause(f)
	args = append(args, take, skip)
	rows, err := r.db.query(ctx, `SELECT `+notificationColumns+` FROM notifications n`+where+
		` ORDER BY n.notification_id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// whereClause renders f as a WHERE clause over the notifications alias n.
func whereClause(f domain.NotificationFilter) (string, []any) {
	var conds []string
	var args []any
	if !f.IncludeDeleted {
		conds = append(conds, "n.is_deleted = ?")
		args = append(args, false)
	}
	if f.SenderID != "" {
		conds = append(conds, "n.sender_id = ?")
		args = append(args, f.SenderID)
	}
	if f.RecipientID != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM recipients r WHERE r.notification_id = n.notification_id AND r.recipient_id = ?)")
		args = append(args, f.RecipientID)
	}
	if f.SearchTerm != "" {
		conds = append(conds, "(n.title = ? OR n.body = ?)")
		args = append(args, f.SearchTerm, f.SearchTerm)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var (
		n                    domain.Notification
		typ, subject         string
		senderID, deletedAt  sql.NullString
		payload              string
		createdAt, updatedAt string
	)
	if err := s.Scan(&n.NotificationID, &n.Title, &n.Body, &typ, &subject, &senderID,
		&payload, &n.IsDeleted, &deletedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	n.Subject = domain.NotificationSubject(subject)
	if senderID.Valid {
		n.SenderID = &senderID.String
	}
	if err := json.Unmarshal([]byte(payload), &n.ActionPayload); err != nil {
		return nil, fmt.Errorf("decode action payload: %w", err)
	}
	if n.ActionPayload == nil {
		n.ActionPayload = map[string]any{}
	}
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return nil, err
		}
		n.DeletedAt = &t
	}
	return &n, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func affectedOne(res sql.Result, err error, notificationID string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return nil
}
