// Package service contains the application services of the rewards economy:
// task verification, perk redemption, reconciliation, accounts and auth.
package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// Notifier delivers human-readable event messages to users. Implementations
// are fire-and-forget: a delivery failure must never block or reverse ledger
// state.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, title, message, category, linkTo string)
}

// StoreNotifier persists notifications for in-app delivery and serves reads.
type StoreNotifier struct {
	repo repository.NotificationRepository
	log  *zap.Logger
}

// NewStoreNotifier constructs a store-backed notifier.
func NewStoreNotifier(repo repository.NotificationRepository, log *zap.Logger) *StoreNotifier {
	return &StoreNotifier{repo: repo, log: log}
}

// Notify writes the notification, logging failures instead of returning them.
func (n *StoreNotifier) Notify(ctx context.Context, recipientID uuid.UUID, title, message, category, linkTo string) {
	id, err := uuid.NewV4()
	if err != nil {
		n.log.Warn("notification id", zap.Error(err))
		return
	}
	err = n.repo.Insert(ctx, &model.Notification{
		ID:          id,
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Category:    category,
		LinkTo:      linkTo,
	})
	if err != nil {
		n.log.Warn("notification insert",
			zap.Stringer("recipient", recipientID),
			zap.String("category", category),
			zap.Error(err),
		)
	}
}

// List returns a user's notifications, newest first.
func (n *StoreNotifier) List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	return n.repo.ListByRecipient(ctx, recipientID, limit, offset)
}

// MarkRead flips the read flag on the recipient's notification.
func (n *StoreNotifier) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return n.repo.MarkRead(ctx, id, recipientID)
}
