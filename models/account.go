package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a betting account with a monetary balance.
//
// Balance may go negative up to CreditLimit once credit has been drawn;
// CurrentDebt tracks the amount owed against that limit and is only ever
// reduced through the funding ledger's deposit offset.
type Account struct {
	ID          int64           `db:"id"`
	Balance     decimal.Decimal `db:"balance"`
	CreditLimit decimal.Decimal `db:"credit_limit"`
	CurrentDebt decimal.Decimal `db:"current_debt"`
	TotalStaked decimal.Decimal `db:"total_staked"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// CanStake reports whether the account balance covers the given stake.
// Credit limit is deliberately not consulted here: stakes are reserved from
// balance only (reserve-then-settle).
func (a *Account) CanStake(stake decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(stake)
}

// HasDebt reports whether the account currently owes against its credit line.
func (a *Account) HasDebt() bool {
	return a.CurrentDebt.IsPositive()
}
