package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// ReconcileReport counts the repairs applied by a sweep run.
type ReconcileReport struct {
	AwardsApplied  int
	DebitsRefunded int
}

// Reconciler repairs the two partial-failure windows the hot paths can leave
// behind: tasks approved whose award never landed, and perk debits that were
// neither completed into a claim nor refunded. Both repairs go through the
// same atomic ledger primitive keyed by the original reference, so racing the
// hot path (or a second sweep) cannot double-apply anything.
type Reconciler struct {
	tasks    repository.TaskRepository
	accounts repository.AccountRepository
	grace    time.Duration
	log      *zap.Logger
}

// NewReconciler constructs a reconciler. grace is how old an inconsistency
// must be before the sweep touches it, leaving in-flight operations alone.
func NewReconciler(tasks repository.TaskRepository, accounts repository.AccountRepository, grace time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{tasks: tasks, accounts: accounts, grace: grace, log: log}
}

// Run performs one sweep. Per-item failures are logged and skipped so one
// broken row cannot stall the rest of the repair.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	cutoff := time.Now().Add(-r.grace)

	unpaid, err := r.tasks.ListUnpaidAwards(ctx, cutoff)
	if err != nil {
		return report, err
	}
	for _, u := range unpaid {
		_, err := r.accounts.Adjust(ctx, u.TenantID, u.PointsReward, model.EntryTaskAward, u.TaskID)
		switch {
		case err == nil:
			report.AwardsApplied++
			r.log.Info("reconcile: applied missing award",
				zap.Stringer("task", u.TaskID),
				zap.Stringer("tenant", u.TenantID),
				zap.Int64("points", u.PointsReward),
			)
		case errors.Is(err, errs.ErrAlreadyExists):
			// The approval path landed the award between listing and now.
		default:
			r.log.Error("reconcile: award", zap.Stringer("task", u.TaskID), zap.Error(err))
		}
	}

	orphans, err := r.accounts.ListOrphanedDebits(ctx, cutoff)
	if err != nil {
		return report, err
	}
	for _, d := range orphans {
		_, err := r.accounts.Adjust(ctx, d.UserID, d.Amount, model.EntryPerkRefund, d.Ref)
		switch {
		case err == nil:
			report.DebitsRefunded++
			r.log.Info("reconcile: refunded orphaned debit",
				zap.Stringer("claim", d.Ref),
				zap.Stringer("tenant", d.UserID),
				zap.Int64("points", d.Amount),
			)
		case errors.Is(err, errs.ErrAlreadyExists):
			// Refund already recorded.
		default:
			r.log.Error("reconcile: refund", zap.Stringer("claim", d.Ref), zap.Error(err))
		}
	}

	return report, nil
}
