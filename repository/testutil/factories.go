package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"bookie/models"
)

// CreateTestAccount inserts an account row with the given balance.
func (td *TestDatabase) CreateTestAccount(t *testing.T, accountID int64, balance string) *models.Account {
	t.Helper()
	ctx := context.Background()

	row := td.DB.QueryRow(ctx, `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		RETURNING id, balance, credit_limit, current_debt, total_staked, created_at, updated_at`,
		accountID, decimal.RequireFromString(balance))

	var a models.Account
	if err := row.Scan(&a.ID, &a.Balance, &a.CreditLimit, &a.CurrentDebt, &a.TotalStaked, &a.CreatedAt, &a.UpdatedAt); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return &a
}

// SetTestDebt sets credit fields directly for debt-offset scenarios.
func (td *TestDatabase) SetTestDebt(t *testing.T, accountID int64, creditLimit, currentDebt string) {
	t.Helper()
	ctx := context.Background()

	_, err := td.DB.Exec(ctx, `
		UPDATE accounts SET credit_limit = $1, current_debt = $2 WHERE id = $3`,
		decimal.RequireFromString(creditLimit), decimal.RequireFromString(currentDebt), accountID)
	if err != nil {
		t.Fatalf("failed to set test debt: %v", err)
	}
}
