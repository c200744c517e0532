package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"bookie/events"
	"bookie/models"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*models.Account, error) {
	args := m.Called(ctx, accountID, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) ForceDeductBalance(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) AddTotalStaked(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetDebt(ctx context.Context, accountID int64, debt decimal.Decimal) error {
	args := m.Called(ctx, accountID, debt)
	return args.Error(0)
}

func (m *MockAccountRepository) SetCreditLimit(ctx context.Context, accountID int64, limit decimal.Decimal) error {
	args := m.Called(ctx, accountID, limit)
	return args.Error(0)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) Update(ctx context.Context, wager *models.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetOpen(ctx context.Context, accountID *int64) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *models.DepositRequest) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.DepositRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRequest), args.Error(1)
}

func (m *MockDepositRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	args := m.Called(ctx, id, status, processedAt)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.WithdrawalRequest) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	args := m.Called(ctx, id, status, processedAt)
	return args.Error(0)
}

// MockCreditRequestRepository is a mock implementation of CreditRequestRepository
type MockCreditRequestRepository struct {
	mock.Mock
}

func (m *MockCreditRequestRepository) Create(ctx context.Context, request *models.CreditRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockCreditRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.CreditRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditRequest), args.Error(1)
}

func (m *MockCreditRequestRepository) HasPending(ctx context.Context, accountID int64) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCreditRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus, processedAt time.Time) error {
	args := m.Called(ctx, id, status, processedAt)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher. Publish is
// recorded without expectations so that tests only assert on events they
// care about.
type MockEventPublisher struct {
	mock.Mock
	Published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Published = append(m.Published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories so each test controls the full set.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo       AccountRepository
	wagerRepo         WagerRepository
	historyRepo       BalanceHistoryRepository
	depositRepo       DepositRepository
	withdrawalRepo    WithdrawalRepository
	creditRequestRepo CreditRequestRepository
	eventBus          EventPublisher
}

// SetRepositories wires the repositories the mock hands out. A nil eventBus
// is replaced with a recording MockEventPublisher.
func (m *MockUnitOfWork) SetRepositories(
	accountRepo AccountRepository,
	wagerRepo WagerRepository,
	historyRepo BalanceHistoryRepository,
	depositRepo DepositRepository,
	withdrawalRepo WithdrawalRepository,
	creditRequestRepo CreditRequestRepository,
	eventBus EventPublisher,
) {
	if eventBus == nil {
		eventBus = &MockEventPublisher{}
	}
	m.accountRepo = accountRepo
	m.wagerRepo = wagerRepo
	m.historyRepo = historyRepo
	m.depositRepo = depositRepo
	m.withdrawalRepo = withdrawalRepo
	m.creditRequestRepo = creditRequestRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) WagerRepository() WagerRepository {
	return m.wagerRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.historyRepo
}

func (m *MockUnitOfWork) DepositRepository() DepositRepository {
	return m.depositRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) CreditRequestRepository() CreditRequestRepository {
	return m.creditRequestRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
