package service

import (
	"context"
	"fmt"

	"bookie/events"
	"bookie/models"
)

// RecordBalanceChange records a balance history entry and publishes the
// matching event on the unit of work's transactional bus. This is the single
// entry point for every balance mutation in either ledger, so the history
// table stays a complete audit trail.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:       history.AccountID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}
