package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus represents the admin-review state of a funding request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// IsProcessed reports whether the request has already been approved or rejected.
func (s RequestStatus) IsProcessed() bool {
	return s != RequestStatusPending
}

// DepositRequest is a pending credit of external funds to an account.
// TxReference is the external transaction identifier and is unique across
// all deposit requests.
type DepositRequest struct {
	ID          int64           `db:"id"`
	AccountID   int64           `db:"account_id"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	TxReference string          `db:"tx_reference"`
	Status      RequestStatus   `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

// WithdrawalRequest reserves funds from the balance at creation time; the
// reservation is released back only on rejection.
type WithdrawalRequest struct {
	ID          int64           `db:"id"`
	AccountID   int64           `db:"account_id"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	Address     string          `db:"address"`
	Status      RequestStatus   `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

// CreditRequest asks for a raised credit ceiling. At most one pending
// request may exist per account.
type CreditRequest struct {
	ID             int64           `db:"id"`
	AccountID      int64           `db:"account_id"`
	RequestedLimit decimal.Decimal `db:"requested_limit"`
	Status         RequestStatus   `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	ProcessedAt    *time.Time      `db:"processed_at"`
}
