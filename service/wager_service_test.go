package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookie/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

// newWagerMocks wires a unit of work with fresh repository mocks.
func newWagerMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockAccountRepository, *MockWagerRepository, *MockBalanceHistoryRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockWagerRepo := new(MockWagerRepository)
	mockHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockAccountRepo, mockWagerRepo, mockHistoryRepo, nil, nil, nil, nil)
	return mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo
}

func simpleLeg(odd string) LegInput {
	return LegInput{
		FixtureID:  100,
		MarketType: "1x2",
		OutcomeKey: "1",
		Odd:        dec(odd),
	}
}

func TestWagerService_PlaceWager(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo := newWagerMocks()

	service := NewWagerService(mockFactory)

	account := &models.Account{ID: 1, Balance: dec("100")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(1), decEq("20")).Return(nil)
	mockAccountRepo.On("AddTotalStaked", ctx, int64(1), decEq("20")).Return(nil)

	mockWagerRepo.On("Create", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.AccountID == 1 &&
			w.Stake.Equal(dec("20")) &&
			w.TotalOdd.Equal(dec("2")) &&
			w.PotentialWin.Equal(dec("40")) &&
			w.Status == models.WagerStatusPending &&
			len(w.Legs) == 1 &&
			w.Reference != ""
	})).Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.AccountID == 1 &&
			h.BalanceBefore.Equal(dec("100")) &&
			h.BalanceAfter.Equal(dec("80")) &&
			h.ChangeAmount.Equal(dec("-20")) &&
			h.TransactionType == models.TransactionTypeWagerStake
	})).Return(nil)

	wager, err := service.PlaceWager(ctx, 1, []LegInput{simpleLeg("2.0")}, dec("20"))

	require.NoError(t, err)
	require.NotNil(t, wager)
	assert.True(t, wager.PotentialWin.Equal(dec("40")))
	assert.Equal(t, models.WagerStatusPending, wager.Status)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockWagerRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestWagerService_PlaceWager_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, _ := newWagerMocks()

	service := NewWagerService(mockFactory)

	account := &models.Account{ID: 1, Balance: dec("10")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)

	_, err := service.PlaceWager(ctx, 1, []LegInput{simpleLeg("2.0")}, dec("20"))

	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestWagerService_PlaceWager_CreditLimitNotConsulted(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, _ := newWagerMocks()

	service := NewWagerService(mockFactory)

	// A generous credit line does not make stakes affordable; only balance
	// covers stakes.
	account := &models.Account{ID: 1, Balance: dec("10"), CreditLimit: dec("1000")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)

	_, err := service.PlaceWager(ctx, 1, []LegInput{simpleLeg("2.0")}, dec("20"))

	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
}

func TestWagerService_PlaceWager_Validation(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewWagerService(mockFactory)

	_, err := service.PlaceWager(ctx, 1, nil, dec("20"))
	assert.ErrorIs(t, err, models.ErrEmptyLegs)

	_, err = service.PlaceWager(ctx, 1, []LegInput{simpleLeg("2.0")}, dec("0"))
	assert.ErrorIs(t, err, models.ErrInvalidStake)

	_, err = service.PlaceWager(ctx, 1, []LegInput{simpleLeg("-1.5")}, dec("20"))
	assert.Error(t, err)

	// A leg the evaluator can never settle is rejected at creation.
	badLeg := LegInput{FixtureID: 100, MarketType: "player_to_score", OutcomeKey: "messi", Odd: dec("3.0")}
	_, err = service.PlaceWager(ctx, 1, []LegInput{badLeg}, dec("20"))
	assert.Error(t, err)

	// So is a half scope on a market that only settles at full time.
	halfLeg := LegInput{FixtureID: 100, MarketType: "win_to_nil_1h", OutcomeKey: "home", Odd: dec("4.0")}
	_, err = service.PlaceWager(ctx, 1, []LegInput{halfLeg}, dec("20"))
	assert.Error(t, err)

	// None of these reach the database.
	mockFactory.AssertNotCalled(t, "Create")
}

func TestWagerService_PlaceWager_ReferenceCollisionRetries(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo := newWagerMocks()

	service := NewWagerService(mockFactory)

	account := &models.Account{ID: 1, Balance: dec("100")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("DeductBalance", ctx, int64(1), decEq("20")).Return(nil)
	mockAccountRepo.On("AddTotalStaked", ctx, int64(1), decEq("20")).Return(nil)

	// First attempt collides, second succeeds with a fresh reference.
	mockWagerRepo.On("Create", ctx, mock.AnythingOfType("*models.Wager")).Return(models.ErrDuplicateReference).Once()
	mockWagerRepo.On("Create", ctx, mock.AnythingOfType("*models.Wager")).Return(nil).Once()
	mockHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)

	wager, err := service.PlaceWager(ctx, 1, []LegInput{simpleLeg("2.0")}, dec("20"))

	require.NoError(t, err)
	require.NotNil(t, wager)
	mockWagerRepo.AssertNumberOfCalls(t, "Create", 2)
}

// Scenario: settle a pending wager as won. Stake 20 at odd 2.0 pays 40.
func TestWagerService_SetWagerStatus_Won(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo := newWagerMocks()

	service := NewWagerService(mockFactory)

	wager := &models.Wager{
		ID:           7,
		AccountID:    1,
		Stake:        dec("20"),
		TotalOdd:     dec("2"),
		PotentialWin: dec("40"),
		Status:       models.WagerStatusPending,
	}
	account := &models.Account{ID: 1, Balance: dec("80")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(wager, nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)

	// Pending has no balance effect to reverse, so only the win is credited.
	mockAccountRepo.On("AddBalance", ctx, int64(1), decEq("40")).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWagerWin &&
			h.BalanceBefore.Equal(dec("80")) &&
			h.BalanceAfter.Equal(dec("120")) &&
			h.ChangeAmount.Equal(dec("40"))
	})).Return(nil)

	mockWagerRepo.On("Update", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.Status == models.WagerStatusWon &&
			w.WinAmount != nil && w.WinAmount.Equal(dec("40")) &&
			w.SettledAt != nil && w.CancelledAt == nil
	})).Return(nil)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatusWon, nil, "")

	require.NoError(t, err)
	mockAccountRepo.AssertNotCalled(t, "ForceDeductBalance", mock.Anything, mock.Anything, mock.Anything)
	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockWagerRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

// Scenario: same wager lost. No credit, balance stays at 80.
func TestWagerService_SetWagerStatus_Lost(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, _ := newWagerMocks()

	service := NewWagerService(mockFactory)

	wager := &models.Wager{
		ID:           7,
		AccountID:    1,
		Stake:        dec("20"),
		PotentialWin: dec("40"),
		Status:       models.WagerStatusPending,
	}
	account := &models.Account{ID: 1, Balance: dec("80")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(wager, nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockWagerRepo.On("Update", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.Status == models.WagerStatusLost &&
			w.WinAmount == nil && w.SettledAt != nil
	})).Return(nil)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatusLost, nil, "")

	require.NoError(t, err)
	mockAccountRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	mockAccountRepo.AssertNotCalled(t, "ForceDeductBalance", mock.Anything, mock.Anything, mock.Anything)
}

// Transitioning a settled wager reverses its payout before applying the new
// status. won -> lost claws the 40 back.
func TestWagerService_SetWagerStatus_ReversesPriorEffect(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo := newWagerMocks()

	service := NewWagerService(mockFactory)

	wager := &models.Wager{
		ID:           7,
		AccountID:    1,
		Stake:        dec("20"),
		PotentialWin: dec("40"),
		WinAmount:    decPtr("40"),
		Status:       models.WagerStatusWon,
	}
	account := &models.Account{ID: 1, Balance: dec("120")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(wager, nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)

	mockAccountRepo.On("ForceDeductBalance", ctx, int64(1), decEq("40")).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWagerReversal &&
			h.BalanceBefore.Equal(dec("120")) &&
			h.BalanceAfter.Equal(dec("80")) &&
			h.ChangeAmount.Equal(dec("-40"))
	})).Return(nil)

	mockWagerRepo.On("Update", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.Status == models.WagerStatusLost && w.WinAmount == nil
	})).Return(nil)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatusLost, nil, "")

	require.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

// Repeating the current status must not touch the balance at all.
func TestWagerService_SetWagerStatus_Idempotent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, _ := newWagerMocks()

	service := NewWagerService(mockFactory)

	wager := &models.Wager{
		ID:        7,
		AccountID: 1,
		Stake:     dec("20"),
		WinAmount: decPtr("40"),
		Status:    models.WagerStatusWon,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(wager, nil)
	mockWagerRepo.On("Update", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.Status == models.WagerStatusWon && w.Notes == "resettled"
	})).Return(nil)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatusWon, nil, "resettled")

	require.NoError(t, err)
	mockAccountRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	mockAccountRepo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	mockAccountRepo.AssertNotCalled(t, "ForceDeductBalance", mock.Anything, mock.Anything, mock.Anything)
}

// A refund returns exactly the stake, regardless of potential win.
func TestWagerService_SetWagerStatus_Refunded(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockWagerRepo, mockHistoryRepo := newWagerMocks()

	service := NewWagerService(mockFactory)

	wager := &models.Wager{
		ID:           7,
		AccountID:    1,
		Stake:        dec("10"),
		PotentialWin: dec("30"),
		Status:       models.WagerStatusPending,
	}
	account := &models.Account{ID: 1, Balance: dec("90")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(wager, nil)
	mockAccountRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("AddBalance", ctx, int64(1), decEq("10")).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWagerRefund &&
			h.ChangeAmount.Equal(dec("10"))
	})).Return(nil)
	mockWagerRepo.On("Update", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.Status == models.WagerStatusRefunded &&
			w.WinAmount != nil && w.WinAmount.Equal(dec("10")) &&
			w.CancelledAt != nil && w.SettledAt == nil
	})).Return(nil)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatusRefunded, nil, "")

	require.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
}

func TestWagerService_SetWagerStatus_InvalidStatus(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewWagerService(mockFactory)

	err := service.SetWagerStatus(ctx, 7, models.WagerStatus("bogus"), nil, "")

	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestWagerService_SetWagerStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockWagerRepo, _ := newWagerMocks()

	service := NewWagerService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockWagerRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	err := service.SetWagerStatus(ctx, 99, models.WagerStatusWon, nil, "")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
