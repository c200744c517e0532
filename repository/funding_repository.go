package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bookie/models"
)

// DepositRepository implements the service.DepositRepository interface
type DepositRepository struct {
	q queryable
}

func newDepositRepositoryWithTx(tx queryable) *DepositRepository {
	return &DepositRepository{q: tx}
}

// Create persists a deposit request. A reused external transaction reference
// returns ErrDuplicateReference.
func (r *DepositRepository) Create(ctx context.Context, deposit *models.DepositRequest) error {
	query := `
		INSERT INTO deposit_requests (account_id, amount, currency, tx_reference, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		deposit.AccountID,
		deposit.Amount,
		deposit.Currency,
		deposit.TxReference,
		deposit.Status,
	).Scan(&deposit.ID, &deposit.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("tx reference %q: %w", deposit.TxReference, models.ErrDuplicateReference)
	}
	if err != nil {
		return fmt.Errorf("failed to create deposit request: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves a deposit request with a row lock.
func (r *DepositRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.DepositRequest, error) {
	query := `
		SELECT id, account_id, amount, currency, tx_reference, status, created_at, processed_at
		FROM deposit_requests
		WHERE id = $1
		FOR UPDATE
	`

	var d models.DepositRequest
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.AccountID, &d.Amount, &d.Currency, &d.TxReference,
		&d.Status, &d.CreatedAt, &d.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit request %d: %w", id, err)
	}
	return &d, nil
}

// UpdateStatus marks a deposit request processed.
func (r *DepositRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	query := `UPDATE deposit_requests SET status = $1, processed_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update deposit request %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("deposit request %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// WithdrawalRepository implements the service.WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

// Create persists a withdrawal request.
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (account_id, amount, currency, address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.AccountID,
		withdrawal.Amount,
		withdrawal.Currency,
		withdrawal.Address,
		withdrawal.Status,
	).Scan(&withdrawal.ID, &withdrawal.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves a withdrawal request with a row lock.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	query := `
		SELECT id, account_id, amount, currency, address, status, created_at, processed_at
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`

	var w models.WithdrawalRequest
	err := r.q.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.AccountID, &w.Amount, &w.Currency, &w.Address,
		&w.Status, &w.CreatedAt, &w.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request %d: %w", id, err)
	}
	return &w, nil
}

// UpdateStatus marks a withdrawal request processed.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	query := `UPDATE withdrawal_requests SET status = $1, processed_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal request %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// CreditRequestRepository implements the service.CreditRequestRepository interface
type CreditRequestRepository struct {
	q queryable
}

func newCreditRequestRepositoryWithTx(tx queryable) *CreditRequestRepository {
	return &CreditRequestRepository{q: tx}
}

// Create persists a credit request. The partial unique index on pending
// requests backs up the service-level single-pending check.
func (r *CreditRequestRepository) Create(ctx context.Context, request *models.CreditRequest) error {
	query := `
		INSERT INTO credit_requests (account_id, requested_limit, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		request.AccountID,
		request.RequestedLimit,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("account %d: %w", request.AccountID, models.ErrPendingCreditRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to create credit request: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves a credit request with a row lock.
func (r *CreditRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.CreditRequest, error) {
	query := `
		SELECT id, account_id, requested_limit, status, created_at, processed_at
		FROM credit_requests
		WHERE id = $1
		FOR UPDATE
	`

	var c models.CreditRequest
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.AccountID, &c.RequestedLimit, &c.Status, &c.CreatedAt, &c.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit request %d: %w", id, err)
	}
	return &c, nil
}

// HasPending reports whether the account already has a pending credit request.
func (r *CreditRequestRepository) HasPending(ctx context.Context, accountID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM credit_requests WHERE account_id = $1 AND status = 'pending')`

	var exists bool
	if err := r.q.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending credit requests for account %d: %w", accountID, err)
	}
	return exists, nil
}

// UpdateStatus marks a credit request processed.
func (r *CreditRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	query := `UPDATE credit_requests SET status = $1, processed_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update credit request %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("credit request %d: %w", id, models.ErrNotFound)
	}
	return nil
}
