package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bookie/models"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, balance, credit_limit, current_debt, total_staked, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Balance,
		&a.CreditLimit,
		&a.CurrentDebt,
		&a.TotalStaked,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	return account, nil
}

// GetByIDForUpdate retrieves an account with a row lock, serializing
// concurrent transitions on the same account.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", accountID, err)
	}
	return account, nil
}

// Create creates a new account with the given starting balance
func (r *AccountRepository) Create(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", accountID, err)
	}
	return account, nil
}

// AddBalance adds to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("failed to add balance for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	return nil
}

// DeductBalance deducts from an account's balance atomically, failing with
// ErrInsufficientBalance when the balance does not cover the amount.
func (r *AccountRepository) DeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrInsufficientBalance)
	}
	return nil
}

// ForceDeductBalance deducts without the sufficiency guard. Used only by
// status reversal, which may legitimately drive a balance below zero when
// unwinding a prior payout.
func (r *AccountRepository) ForceDeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	return nil
}

// AddTotalStaked increments the account's cumulative staked amount.
func (r *AccountRepository) AddTotalStaked(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET total_staked = total_staked + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("failed to update total staked for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	return nil
}

// SetDebt sets the account's current debt to a new non-negative value.
func (r *AccountRepository) SetDebt(ctx context.Context, accountID int64, debt decimal.Decimal) error {
	if debt.IsNegative() {
		return fmt.Errorf("debt cannot be negative")
	}

	query := `
		UPDATE accounts
		SET current_debt = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, debt, accountID)
	if err != nil {
		return fmt.Errorf("failed to set debt for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	return nil
}

// SetCreditLimit sets the account's credit ceiling.
func (r *AccountRepository) SetCreditLimit(ctx context.Context, accountID int64, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("credit limit cannot be negative")
	}

	query := `
		UPDATE accounts
		SET credit_limit = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, limit, accountID)
	if err != nil {
		return fmt.Errorf("failed to set credit limit for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, models.ErrNotFound)
	}
	return nil
}
