package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
)

// NotificationRepo implements NotificationRepository using PostgreSQL.
type NotificationRepo struct{ db *DB }

// NewNotificationRepo constructs a notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Insert writes a notification row.
func (r *NotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, recipient_id, title, message, category, link_to)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.RecipientID, n.Title, n.Message, n.Category, n.LinkTo)
	return err
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	const q = `
SELECT id, recipient_id, title, message, category, link_to, is_read, created_at
FROM notifications
WHERE recipient_id=$1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message,
			&n.Category, &n.LinkTo, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips is_read on the recipient's notification.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	const q = `UPDATE notifications SET is_read=true WHERE id=$1 AND recipient_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
