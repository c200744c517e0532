package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bookie/events"
	"bookie/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by ID, nil when absent
	GetByID(ctx context.Context, accountID int64) (*models.Account, error)

	// GetByIDForUpdate retrieves an account with a row lock
	GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error)

	// Create creates a new account with the given starting balance
	Create(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*models.Account, error)

	// AddBalance adds to an account's balance atomically
	AddBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error

	// DeductBalance deducts from an account's balance, failing if insufficient
	DeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error

	// ForceDeductBalance deducts without the sufficiency guard (status reversal only)
	ForceDeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error

	// AddTotalStaked increments the cumulative staked amount
	AddTotalStaked(ctx context.Context, accountID int64, amount decimal.Decimal) error

	// SetDebt sets the current debt to a new non-negative value
	SetDebt(ctx context.Context, accountID int64, debt decimal.Decimal) error

	// SetCreditLimit sets the credit ceiling
	SetCreditLimit(ctx context.Context, accountID int64, limit decimal.Decimal) error
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create persists a wager with its legs
	Create(ctx context.Context, wager *models.Wager) error

	// GetByID retrieves a wager with legs, nil when absent
	GetByID(ctx context.Context, id int64) (*models.Wager, error)

	// GetByIDForUpdate retrieves a wager with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error)

	// Update persists a wager's settlement fields
	Update(ctx context.Context, wager *models.Wager) error

	// GetOpen returns wagers awaiting settlement, optionally scoped to an account
	GetOpen(ctx context.Context, accountID *int64) ([]*models.Wager, error)

	// GetByAccount returns the most recent wagers for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByAccount returns balance history for a specific account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error)
}

// DepositRepository defines the interface for deposit request data access
type DepositRepository interface {
	Create(ctx context.Context, deposit *models.DepositRequest) error
	GetByIDForUpdate(ctx context.Context, id int64) (*models.DepositRequest, error)
	UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error
}

// WithdrawalRepository defines the interface for withdrawal request data access
type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *models.WithdrawalRequest) error
	GetByIDForUpdate(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error
}

// CreditRequestRepository defines the interface for credit request data access
type CreditRequestRepository interface {
	Create(ctx context.Context, request *models.CreditRequest) error
	GetByIDForUpdate(ctx context.Context, id int64) (*models.CreditRequest, error)
	HasPending(ctx context.Context, accountID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error
}

// LegInput describes one leg of a wager being placed.
type LegInput struct {
	FixtureID  int64
	MarketType string
	OutcomeKey string
	Line       *decimal.Decimal
	Odd        decimal.Decimal
}

// WagerService defines the interface for wager ledger operations
type WagerService interface {
	// PlaceWager creates a wager, reserving the stake from balance
	PlaceWager(ctx context.Context, accountID int64, legs []LegInput, stake decimal.Decimal) (*models.Wager, error)

	// SetWagerStatus transitions a wager, reversing and applying balance
	// effects as needed. winAmount overrides the default of potential_win
	// for a won target.
	SetWagerStatus(ctx context.Context, wagerID int64, target models.WagerStatus, winAmount *decimal.Decimal, notes string) error

	// GetWagerByID retrieves a wager by ID
	GetWagerByID(ctx context.Context, wagerID int64) (*models.Wager, error)

	// GetWagersByAccount returns the most recent wagers for an account
	GetWagersByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error)

	// GetOpenWagers returns wagers awaiting settlement, optionally scoped
	// to one account
	GetOpenWagers(ctx context.Context, accountID *int64) ([]*models.Wager, error)
}

// SettlementService defines the interface for the settlement scheduler
type SettlementService interface {
	// SettleOpenWagers evaluates open wagers against provider results and
	// applies the verdicts it can reach, returning a per-run report.
	SettleOpenWagers(ctx context.Context, accountID *int64) (*models.SettlementReport, error)
}

// FundingService defines the interface for deposit/withdrawal/credit operations
type FundingService interface {
	CreateDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, currency, txReference string) (*models.DepositRequest, error)
	ApproveDeposit(ctx context.Context, depositID int64) error
	RejectDeposit(ctx context.Context, depositID int64) error

	CreateWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, currency, address string) (*models.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID int64) error
	RejectWithdrawal(ctx context.Context, withdrawalID int64) error

	CreateCreditRequest(ctx context.Context, accountID int64, requestedLimit decimal.Decimal) (*models.CreditRequest, error)
	ApproveCreditRequest(ctx context.Context, requestID int64) error
	RejectCreditRequest(ctx context.Context, requestID int64) error
}

// AccountService defines the interface for account operations
type AccountService interface {
	// GetOrCreateAccount retrieves an account or creates one with the
	// given starting balance
	GetOrCreateAccount(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*models.Account, error)

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// GetBalanceHistory returns recent balance history for an account
	GetBalanceHistory(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	WagerRepository() WagerRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	DepositRepository() DepositRepository
	WithdrawalRepository() WithdrawalRepository
	CreditRequestRepository() CreditRequestRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
