package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeWagerStake        TransactionType = "wager_stake"
	TransactionTypeWagerWin          TransactionType = "wager_win"
	TransactionTypeWagerRefund       TransactionType = "wager_refund"
	TransactionTypeWagerReversal     TransactionType = "wager_reversal"
	TransactionTypeDeposit           TransactionType = "deposit"
	TransactionTypeDebtOffset        TransactionType = "debt_offset"
	TransactionTypeWithdrawalReserve TransactionType = "withdrawal_reserve"
	TransactionTypeWithdrawalRelease TransactionType = "withdrawal_release"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeWager      RelatedType = "wager"
	RelatedTypeDeposit    RelatedType = "deposit"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// BalanceHistory represents a historical balance change. Every balance
// mutation in either ledger writes one of these in the same transaction.
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	AccountID           int64           `db:"account_id"`
	BalanceBefore       decimal.Decimal `db:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
