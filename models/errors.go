package models

import "errors"

// Sentinel errors shared by both ledgers. Services wrap these with context;
// callers match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrEmptyLegs            = errors.New("wager must have at least one leg")
	ErrInvalidStake         = errors.New("stake must be positive")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAlreadyProcessed     = errors.New("request already processed")
	ErrDuplicateReference   = errors.New("duplicate transaction reference")
	ErrPendingCreditRequest = errors.New("account already has a pending credit request")
	ErrInvalidCreditLimit   = errors.New("requested limit must exceed current credit limit")
)
