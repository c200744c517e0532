package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bookie/events"
	"bookie/models"
	"bookie/outcome"
)

// maxReferenceAttempts bounds regeneration when a wager reference collides.
const maxReferenceAttempts = 5

type wagerService struct {
	uowFactory UnitOfWorkFactory
}

// NewWagerService creates a new wager service
func NewWagerService(uowFactory UnitOfWorkFactory) WagerService {
	return &wagerService{
		uowFactory: uowFactory,
	}
}

// newWagerReference returns a short unique reference code for a wager.
func newWagerReference() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// PlaceWager creates a wager, atomically reserving the stake from the
// account balance. Credit limit is not consulted: only balance covers stakes.
func (s *wagerService) PlaceWager(ctx context.Context, accountID int64, legs []LegInput, stake decimal.Decimal) (*models.Wager, error) {
	if len(legs) == 0 {
		return nil, models.ErrEmptyLegs
	}
	if !stake.IsPositive() {
		return nil, models.ErrInvalidStake
	}

	wagerLegs := make([]*models.WagerLeg, 0, len(legs))
	for i, leg := range legs {
		if !leg.Odd.IsPositive() {
			return nil, fmt.Errorf("leg %d: odd must be positive: %w", i, models.ErrEmptyLegs)
		}
		if leg.FixtureID <= 0 {
			return nil, fmt.Errorf("leg %d: missing fixture reference: %w", i, models.ErrEmptyLegs)
		}
		// Reject outcomes the evaluator will never be able to settle.
		if _, err := outcome.ParseOutcome(leg.MarketType, leg.OutcomeKey, leg.Line); err != nil {
			return nil, fmt.Errorf("leg %d: %v: %w", i, err, models.ErrEmptyLegs)
		}
		wagerLegs = append(wagerLegs, &models.WagerLeg{
			FixtureID:  leg.FixtureID,
			MarketType: leg.MarketType,
			OutcomeKey: leg.OutcomeKey,
			Line:       leg.Line,
			Odd:        leg.Odd,
		})
	}

	// A reference collision aborts the transaction, so the whole attempt is
	// retried with a fresh reference rather than resumed mid-transaction.
	var wager *models.Wager
	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		wager, err = s.placeWagerOnce(ctx, accountID, wagerLegs, stake)
		if errors.Is(err, models.ErrDuplicateReference) {
			log.WithField("accountID", accountID).Warn("Wager reference collision, regenerating")
			continue
		}
		return wager, err
	}
	return nil, fmt.Errorf("failed to generate unique wager reference: %w", err)
}

func (s *wagerService) placeWagerOnce(ctx context.Context, accountID int64, legs []*models.WagerLeg, stake decimal.Decimal) (*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	if !account.CanStake(stake) {
		return nil, fmt.Errorf("account %d: have %s, need %s: %w",
			accountID, account.Balance, stake, models.ErrInsufficientBalance)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, accountID, stake); err != nil {
		return nil, fmt.Errorf("failed to reserve stake: %w", err)
	}
	if err := uow.AccountRepository().AddTotalStaked(ctx, accountID, stake); err != nil {
		return nil, fmt.Errorf("failed to update total staked: %w", err)
	}

	totalOdd := models.TotalOddFromLegs(legs)
	wager := &models.Wager{
		Reference:    newWagerReference(),
		AccountID:    accountID,
		Stake:        stake,
		TotalOdd:     totalOdd,
		PotentialWin: stake.Mul(totalOdd).Round(2),
		Status:       models.WagerStatusPending,
		Legs:         legs,
	}

	if err := uow.WagerRepository().Create(ctx, wager); err != nil {
		return nil, err
	}

	history := &models.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   account.Balance,
		BalanceAfter:    account.Balance.Sub(stake),
		ChangeAmount:    stake.Neg(),
		TransactionType: models.TransactionTypeWagerStake,
		TransactionMetadata: map[string]any{
			"wager_id":  wager.ID,
			"reference": wager.Reference,
			"legs":      len(legs),
		},
		RelatedID:   &wager.ID,
		RelatedType: relatedTypePtr(models.RelatedTypeWager),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		WagerID:      wager.ID,
		AccountID:    accountID,
		Stake:        stake,
		PotentialWin: wager.PotentialWin,
		LegCount:     len(legs),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return wager, nil
}

// SetWagerStatus transitions a wager to the target status. The balance
// effect of the current status is reversed before the target's effect is
// applied; both effects come from the models.StatusEffect table. Repeating
// the current status is a balance no-op that only persists notes.
func (s *wagerService) SetWagerStatus(ctx context.Context, wagerID int64, target models.WagerStatus, winAmount *decimal.Decimal, notes string) error {
	if !target.IsValid() {
		return fmt.Errorf("status %q: %w", target, models.ErrInvalidStatus)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByIDForUpdate(ctx, wagerID)
	if err != nil {
		return fmt.Errorf("failed to get wager: %w", err)
	}
	if wager == nil {
		return fmt.Errorf("wager %d: %w", wagerID, models.ErrNotFound)
	}

	if notes != "" {
		wager.Notes = notes
	}

	if target == wager.Status {
		if err := uow.WagerRepository().Update(ctx, wager); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, wager.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", wager.AccountID, models.ErrNotFound)
	}
	balance := account.Balance

	// Reverse the balance effect of the current status before applying the
	// target's. A lost wager credited nothing, so there is nothing to undo.
	reversal := models.StatusEffect(wager.Status, wager.Stake, wager.RecordedWinAmount())
	if reversal.IsPositive() {
		if err := uow.AccountRepository().ForceDeductBalance(ctx, wager.AccountID, reversal); err != nil {
			return fmt.Errorf("failed to reverse prior status effect: %w", err)
		}
		history := &models.BalanceHistory{
			AccountID:       wager.AccountID,
			BalanceBefore:   balance,
			BalanceAfter:    balance.Sub(reversal),
			ChangeAmount:    reversal.Neg(),
			TransactionType: models.TransactionTypeWagerReversal,
			TransactionMetadata: map[string]any{
				"wager_id":    wager.ID,
				"from_status": string(wager.Status),
				"to_status":   string(target),
			},
			RelatedID:   &wager.ID,
			RelatedType: relatedTypePtr(models.RelatedTypeWager),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}
		balance = balance.Sub(reversal)
	}

	// Resolve the win amount the target status pays out.
	var newWin decimal.Decimal
	switch target {
	case models.WagerStatusWon:
		newWin = wager.PotentialWin
		if winAmount != nil {
			newWin = *winAmount
		}
	case models.WagerStatusRefunded:
		newWin = wager.Stake
	}

	apply := models.StatusEffect(target, wager.Stake, newWin)
	if apply.IsPositive() {
		if err := uow.AccountRepository().AddBalance(ctx, wager.AccountID, apply); err != nil {
			return fmt.Errorf("failed to apply status effect: %w", err)
		}
		txType := models.TransactionTypeWagerWin
		if target != models.WagerStatusWon {
			txType = models.TransactionTypeWagerRefund
		}
		history := &models.BalanceHistory{
			AccountID:       wager.AccountID,
			BalanceBefore:   balance,
			BalanceAfter:    balance.Add(apply),
			ChangeAmount:    apply,
			TransactionType: txType,
			TransactionMetadata: map[string]any{
				"wager_id": wager.ID,
				"status":   string(target),
			},
			RelatedID:   &wager.ID,
			RelatedType: relatedTypePtr(models.RelatedTypeWager),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}
	}

	now := time.Now()
	wager.Status = target
	wager.WinAmount = nil
	wager.SettledAt = nil
	wager.CancelledAt = nil
	switch target {
	case models.WagerStatusWon:
		wager.WinAmount = &newWin
		wager.SettledAt = &now
	case models.WagerStatusLost:
		wager.SettledAt = &now
	case models.WagerStatusRefunded:
		wager.WinAmount = &newWin
		wager.CancelledAt = &now
	case models.WagerStatusCancelled:
		wager.CancelledAt = &now
	}

	if err := uow.WagerRepository().Update(ctx, wager); err != nil {
		return err
	}

	if target.IsTerminal() {
		uow.EventBus().Publish(events.WagerSettledEvent{
			WagerID:   wager.ID,
			AccountID: wager.AccountID,
			Status:    target,
			WinAmount: wager.RecordedWinAmount(),
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID": wagerID,
		"status":  target,
	}).Info("Wager status updated")
	return nil
}

// GetWagerByID retrieves a wager by ID
func (s *wagerService) GetWagerByID(ctx context.Context, wagerID int64) (*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	return wager, nil
}

// GetWagersByAccount returns the most recent wagers for an account
func (s *wagerService) GetWagersByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}
	return wagers, nil
}

// GetOpenWagers returns wagers awaiting settlement, optionally scoped to one
// account.
func (s *wagerService) GetOpenWagers(ctx context.Context, accountID *int64) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetOpen(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get open wagers: %w", err)
	}
	return wagers, nil
}
