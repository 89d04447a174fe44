package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
)

// NotificationRepository stores fire-and-forget user notifications.
type NotificationRepository interface {
	// Insert writes a notification.
	Insert(ctx context.Context, n *model.Notification) error
	// ListByRecipient returns a user's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]model.Notification, error)
	// MarkRead flips is_read on the recipient's notification.
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}
