package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bookie/events"
	"bookie/models"
)

type fundingService struct {
	uowFactory UnitOfWorkFactory
}

// NewFundingService creates a new funding service
func NewFundingService(uowFactory UnitOfWorkFactory) FundingService {
	return &fundingService{
		uowFactory: uowFactory,
	}
}

// CreateDeposit registers a pending deposit request. The external transaction
// reference must be unique across all deposit requests.
func (s *fundingService) CreateDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, currency, txReference string) (*models.DepositRequest, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if txReference == "" {
		return nil, fmt.Errorf("transaction reference is required: %w", models.ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}

	deposit := &models.DepositRequest{
		AccountID:   accountID,
		Amount:      amount,
		Currency:    currency,
		TxReference: txReference,
		Status:      models.RequestStatusPending,
	}
	if err := uow.DepositRepository().Create(ctx, deposit); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deposit, nil
}

// ApproveDeposit credits the account, first offsetting outstanding debt:
// min(amount, debt) reduces the debt, only the remainder reaches the balance.
func (s *fundingService) ApproveDeposit(ctx context.Context, depositID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deposit, err := uow.DepositRepository().GetByIDForUpdate(ctx, depositID)
	if err != nil {
		return fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return fmt.Errorf("deposit %d: %w", depositID, models.ErrNotFound)
	}
	if deposit.Status.IsProcessed() {
		return fmt.Errorf("deposit %d: %w", depositID, models.ErrAlreadyProcessed)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, deposit.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", deposit.AccountID, models.ErrNotFound)
	}

	offset := decimal.Min(deposit.Amount, account.CurrentDebt)
	remainder := deposit.Amount.Sub(offset)

	if offset.IsPositive() {
		if err := uow.AccountRepository().SetDebt(ctx, account.ID, account.CurrentDebt.Sub(offset)); err != nil {
			return fmt.Errorf("failed to offset debt: %w", err)
		}
		history := &models.BalanceHistory{
			AccountID:       account.ID,
			BalanceBefore:   account.Balance,
			BalanceAfter:    account.Balance,
			ChangeAmount:    decimal.Zero,
			TransactionType: models.TransactionTypeDebtOffset,
			TransactionMetadata: map[string]any{
				"deposit_id":  deposit.ID,
				"debt_before": account.CurrentDebt.String(),
				"debt_after":  account.CurrentDebt.Sub(offset).String(),
				"offset":      offset.String(),
			},
			RelatedID:   &deposit.ID,
			RelatedType: relatedTypePtr(models.RelatedTypeDeposit),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}
	}

	if remainder.IsPositive() {
		if err := uow.AccountRepository().AddBalance(ctx, account.ID, remainder); err != nil {
			return fmt.Errorf("failed to credit deposit: %w", err)
		}
		history := &models.BalanceHistory{
			AccountID:       account.ID,
			BalanceBefore:   account.Balance,
			BalanceAfter:    account.Balance.Add(remainder),
			ChangeAmount:    remainder,
			TransactionType: models.TransactionTypeDeposit,
			TransactionMetadata: map[string]any{
				"deposit_id":   deposit.ID,
				"tx_reference": deposit.TxReference,
				"currency":     deposit.Currency,
			},
			RelatedID:   &deposit.ID,
			RelatedType: relatedTypePtr(models.RelatedTypeDeposit),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}
	}

	if err := uow.DepositRepository().UpdateStatus(ctx, deposit.ID, models.RequestStatusApproved, time.Now()); err != nil {
		return err
	}

	uow.EventBus().Publish(events.DepositApprovedEvent{
		DepositID:  deposit.ID,
		AccountID:  account.ID,
		Amount:     deposit.Amount,
		DebtOffset: offset,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"depositID":  depositID,
		"accountID":  account.ID,
		"debtOffset": offset,
	}).Info("Deposit approved")
	return nil
}

// RejectDeposit is a status-only change with no balance effect.
func (s *fundingService) RejectDeposit(ctx context.Context, depositID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deposit, err := uow.DepositRepository().GetByIDForUpdate(ctx, depositID)
	if err != nil {
		return fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return fmt.Errorf("deposit %d: %w", depositID, models.ErrNotFound)
	}
	if deposit.Status.IsProcessed() {
		return fmt.Errorf("deposit %d: %w", depositID, models.ErrAlreadyProcessed)
	}

	if err := uow.DepositRepository().UpdateStatus(ctx, deposit.ID, models.RequestStatusRejected, time.Now()); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateWithdrawal reserves the amount from the balance immediately; the
// reservation is only released back on rejection.
func (s *fundingService) CreateWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, currency, address string) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if address == "" {
		return nil, fmt.Errorf("destination address is required: %w", models.ErrInvalidAmount)
	}

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
	if account.Balance.LessThan(amount) {
		return nil, fmt.Errorf("account %d: have %s, need %s: %w",
			accountID, account.Balance, amount, models.ErrInsufficientBalance)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, accountID, amount); err != nil {
		return nil, fmt.Errorf("failed to reserve withdrawal: %w", err)
	}

	withdrawal := &models.WithdrawalRequest{
		AccountID: accountID,
		Amount:    amount,
		Currency:  currency,
		Address:   address,
		Status:    models.RequestStatusPending,
	}
	if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
		return nil, err
	}

	history := &models.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   account.Balance,
		BalanceAfter:    account.Balance.Sub(amount),
		ChangeAmount:    amount.Neg(),
		TransactionType: models.TransactionTypeWithdrawalReserve,
		TransactionMetadata: map[string]any{
			"withdrawal_id": withdrawal.ID,
			"address":       address,
		},
		RelatedID:   &withdrawal.ID,
		RelatedType: relatedTypePtr(models.RelatedTypeWithdrawal),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return withdrawal, nil
}

// ApproveWithdrawal confirms an already-reserved withdrawal. The funds left
// the balance at creation time, so approval mutates nothing, but it fails if
// the account balance has meanwhile been driven negative.
func (s *fundingService) ApproveWithdrawal(ctx context.Context, withdrawalID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByIDForUpdate(ctx, withdrawalID)
	if err != nil {
		return fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return fmt.Errorf("withdrawal %d: %w", withdrawalID, models.ErrNotFound)
	}
	if withdrawal.Status.IsProcessed() {
		return fmt.Errorf("withdrawal %d: %w", withdrawalID, models.ErrAlreadyProcessed)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, withdrawal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", withdrawal.AccountID, models.ErrNotFound)
	}
	if account.Balance.IsNegative() {
		return fmt.Errorf("account %d balance is %s: %w",
			account.ID, account.Balance, models.ErrInsufficientBalance)
	}

	if err := uow.WithdrawalRepository().UpdateStatus(ctx, withdrawal.ID, models.RequestStatusApproved, time.Now()); err != nil {
		return err
	}

	uow.EventBus().Publish(events.WithdrawalProcessedEvent{
		WithdrawalID: withdrawal.ID,
		AccountID:    account.ID,
		Amount:       withdrawal.Amount,
		Approved:     true,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RejectWithdrawal releases the reservation back to the balance.
func (s *fundingService) RejectWithdrawal(ctx context.Context, withdrawalID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByIDForUpdate(ctx, withdrawalID)
	if err != nil {
		return fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return fmt.Errorf("withdrawal %d: %w", withdrawalID, models.ErrNotFound)
	}
	if withdrawal.Status.IsProcessed() {
		return fmt.Errorf("withdrawal %d: %w", withdrawalID, models.ErrAlreadyProcessed)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, withdrawal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", withdrawal.AccountID, models.ErrNotFound)
	}

	if err := uow.AccountRepository().AddBalance(ctx, account.ID, withdrawal.Amount); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}

	history := &models.BalanceHistory{
		AccountID:       account.ID,
		BalanceBefore:   account.Balance,
		BalanceAfter:    account.Balance.Add(withdrawal.Amount),
		ChangeAmount:    withdrawal.Amount,
		TransactionType: models.TransactionTypeWithdrawalRelease,
		TransactionMetadata: map[string]any{
			"withdrawal_id": withdrawal.ID,
		},
		RelatedID:   &withdrawal.ID,
		RelatedType: relatedTypePtr(models.RelatedTypeWithdrawal),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return err
	}

	if err := uow.WithdrawalRepository().UpdateStatus(ctx, withdrawal.ID, models.RequestStatusRejected, time.Now()); err != nil {
		return err
	}

	uow.EventBus().Publish(events.WithdrawalProcessedEvent{
		WithdrawalID: withdrawal.ID,
		AccountID:    account.ID,
		Amount:       withdrawal.Amount,
		Approved:     false,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateCreditRequest registers a request for a raised credit ceiling. Only
// one pending request may exist per account.
func (s *fundingService) CreateCreditRequest(ctx context.Context, accountID int64, requestedLimit decimal.Decimal) (*models.CreditRequest, error) {
	if !requestedLimit.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	if requestedLimit.LessThanOrEqual(account.CreditLimit) {
		return nil, fmt.Errorf("requested %s, current %s: %w",
			requestedLimit, account.CreditLimit, models.ErrInvalidCreditLimit)
	}

	pending, err := uow.CreditRequestRepository().HasPending(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrPendingCreditRequest)
	}

	request := &models.CreditRequest{
		AccountID:      accountID,
		RequestedLimit: requestedLimit,
		Status:         models.RequestStatusPending,
	}
	if err := uow.CreditRequestRepository().Create(ctx, request); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return request, nil
}

// ApproveCreditRequest raises the account's credit ceiling to the requested
// value.
func (s *fundingService) ApproveCreditRequest(ctx context.Context, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.CreditRequestRepository().GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get credit request: %w", err)
	}
	if request == nil {
		return fmt.Errorf("credit request %d: %w", requestID, models.ErrNotFound)
	}
	if request.Status.IsProcessed() {
		return fmt.Errorf("credit request %d: %w", requestID, models.ErrAlreadyProcessed)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, request.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", request.AccountID, models.ErrNotFound)
	}

	if err := uow.AccountRepository().SetCreditLimit(ctx, account.ID, request.RequestedLimit); err != nil {
		return err
	}
	if err := uow.CreditRequestRepository().UpdateStatus(ctx, request.ID, models.RequestStatusApproved, time.Now()); err != nil {
		return err
	}

	uow.EventBus().Publish(events.CreditLimitChangedEvent{
		AccountID: account.ID,
		OldLimit:  account.CreditLimit,
		NewLimit:  request.RequestedLimit,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RejectCreditRequest is a status-only change.
func (s *fundingService) RejectCreditRequest(ctx context.Context, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.CreditRequestRepository().GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get credit request: %w", err)
	}
	if request == nil {
		return fmt.Errorf("credit request %d: %w", requestID, models.ErrNotFound)
	}
	if request.Status.IsProcessed() {
		return fmt.Errorf("credit request %d: %w", requestID, models.ErrAlreadyProcessed)
	}

	if err := uow.CreditRequestRepository().UpdateStatus(ctx, request.ID, models.RequestStatusRejected, time.Now()); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
