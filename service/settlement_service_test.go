package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookie/models"
	"bookie/outcome"
)

// MockWagerService is a mock implementation of WagerService
type MockWagerService struct {
	mock.Mock
}

func (m *MockWagerService) PlaceWager(ctx context.Context, accountID int64, legs []LegInput, stake decimal.Decimal) (*models.Wager, error) {
	args := m.Called(ctx, accountID, legs, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerService) SetWagerStatus(ctx context.Context, wagerID int64, target models.WagerStatus, winAmount *decimal.Decimal, notes string) error {
	args := m.Called(ctx, wagerID, target, winAmount, notes)
	return args.Error(0)
}

func (m *MockWagerService) GetWagerByID(ctx context.Context, wagerID int64) (*models.Wager, error) {
	args := m.Called(ctx, wagerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerService) GetWagersByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerService) GetOpenWagers(ctx context.Context, accountID *int64) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

// stubProvider serves canned fixture results keyed by fixture ID.
type stubProvider struct {
	results map[int64]*models.FixtureResult
	errs    map[int64]error
}

func (p *stubProvider) FetchFixture(ctx context.Context, fixtureID int64) (*models.FixtureResult, error) {
	if err, ok := p.errs[fixtureID]; ok {
		return nil, err
	}
	res, ok := p.results[fixtureID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return res, nil
}

func finishedResult(fixtureID int64, home, away int) *models.FixtureResult {
	return &models.FixtureResult{
		FixtureID: fixtureID,
		Status:    "finished",
		HomeGoals: home,
		AwayGoals: away,
	}
}

func openLeg(fixtureID int64, market, key string, line *decimal.Decimal, odd string) *models.WagerLeg {
	return &models.WagerLeg{
		FixtureID:  fixtureID,
		MarketType: market,
		OutcomeKey: key,
		Line:       line,
		Odd:        dec(odd),
	}
}

func newSettlementMocks(open []*models.Wager) (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockWagerRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWagerRepo := new(MockWagerRepository)
	mockUoW.SetRepositories(nil, mockWagerRepo, nil, nil, nil, nil, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockWagerRepo.On("GetOpen", mock.Anything, (*int64)(nil)).Return(open, nil)
	return mockFactory, mockUoW, mockWagerRepo
}

// Combined wager, odds 1.5 and 2.0, stake 10. Leg one wins, leg two pushes:
// the aggregate is a refund, not a win.
func TestSettlementService_CombinedWagerRefundOnPush(t *testing.T) {
	ctx := context.Background()

	wager := &models.Wager{
		ID:           7,
		AccountID:    1,
		Stake:        dec("10"),
		TotalOdd:     dec("3"),
		PotentialWin: dec("30"),
		Status:       models.WagerStatusPending,
		Legs: []*models.WagerLeg{
			openLeg(100, "1x2", "1", nil, "1.5"),
			openLeg(101, "total", "over", decPtr("2"), "2.0"),
		},
	}

	mockFactory, _, _ := newSettlementMocks([]*models.Wager{wager})
	mockWagers := new(MockWagerService)
	provider := &stubProvider{results: map[int64]*models.FixtureResult{
		100: finishedResult(100, 2, 0),
		101: finishedResult(101, 1, 1),
	}}

	mockWagers.On("SetWagerStatus", mock.Anything, int64(7), models.WagerStatusRefunded, (*decimal.Decimal)(nil), "").Return(nil)

	service := NewSettlementService(mockFactory, mockWagers, provider, 4)
	report, err := service.SettleOpenWagers(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Examined)
	assert.Equal(t, 1, report.Settled)
	assert.Equal(t, 0, report.Skipped)
	mockWagers.AssertExpectations(t)
}

func TestSettlementService_AllLegsWon(t *testing.T) {
	ctx := context.Background()

	wager := &models.Wager{
		ID:     8,
		Stake:  dec("10"),
		Status: models.WagerStatusPending,
		Legs: []*models.WagerLeg{
			openLeg(100, "1x2", "1", nil, "1.5"),
			openLeg(101, "btts", "yes", nil, "1.8"),
		},
	}

	mockFactory, _, _ := newSettlementMocks([]*models.Wager{wager})
	mockWagers := new(MockWagerService)
	provider := &stubProvider{results: map[int64]*models.FixtureResult{
		100: finishedResult(100, 3, 1),
		101: finishedResult(101, 2, 2),
	}}

	mockWagers.On("SetWagerStatus", mock.Anything, int64(8), models.WagerStatusWon, (*decimal.Decimal)(nil), "").Return(nil)

	service := NewSettlementService(mockFactory, mockWagers, provider, 4)
	report, err := service.SettleOpenWagers(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
	mockWagers.AssertExpectations(t)
}

func TestSettlementService_AnyLostLegLosesWager(t *testing.T) {
	ctx := context.Background()

	wager := &models.Wager{
		ID:     9,
		Stake:  dec("10"),
		Status: models.WagerStatusPending,
		Legs: []*models.WagerLeg{
			openLeg(100, "1x2", "1", nil, "1.5"),
			openLeg(101, "1x2", "2", nil, "2.0"),
		},
	}

	mockFactory, _, _ := newSettlementMocks([]*models.Wager{wager})
	mockWagers := new(MockWagerService)
	provider := &stubProvider{results: map[int64]*models.FixtureResult{
		100: finishedResult(100, 2, 0),
		101: finishedResult(101, 2, 0),
	}}

	mockWagers.On("SetWagerStatus", mock.Anything, int64(9), models.WagerStatusLost, (*decimal.Decimal)(nil), "").Return(nil)

	service := NewSettlementService(mockFactory, mockWagers, provider, 4)
	report, err := service.SettleOpenWagers(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
	mockWagers.AssertExpectations(t)
}

// One unresolvable leg leaves the whole wager untouched, regardless of the
// other legs' verdicts.
func TestSettlementService_SkipRules(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		legs     []*models.WagerLeg
		provider *stubProvider
	}{
		{
			name: "fixture fetch fails",
			legs: []*models.WagerLeg{openLeg(100, "1x2", "1", nil, "1.5")},
			provider: &stubProvider{
				errs: map[int64]error{100: errors.New("provider unavailable")},
			},
		},
		{
			name: "fixture not finished",
			legs: []*models.WagerLeg{openLeg(100, "1x2", "1", nil, "1.5")},
			provider: &stubProvider{results: map[int64]*models.FixtureResult{
				100: {FixtureID: 100, Status: "live", HomeGoals: 2},
			}},
		},
		{
			name: "undetermined leg blocks winning legs",
			legs: []*models.WagerLeg{
				openLeg(100, "1x2", "1", nil, "1.5"),
				openLeg(101, "first_goal", "home", nil, "2.0"),
			},
			provider: &stubProvider{results: map[int64]*models.FixtureResult{
				100: finishedResult(100, 2, 0),
				// Goals scored but no event data: first_goal is unresolvable.
				101: finishedResult(101, 1, 0),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wager := &models.Wager{
				ID:     7,
				Stake:  dec("10"),
				Status: models.WagerStatusPending,
				Legs:   tt.legs,
			}

			mockFactory, _, _ := newSettlementMocks([]*models.Wager{wager})
			mockWagers := new(MockWagerService)

			service := NewSettlementService(mockFactory, mockWagers, tt.provider, 4)
			report, err := service.SettleOpenWagers(ctx, nil)

			require.NoError(t, err)
			assert.Equal(t, 1, report.Examined)
			assert.Equal(t, 0, report.Settled)
			assert.Equal(t, 1, report.Skipped)
			require.Len(t, report.Issues, 1)
			assert.Equal(t, int64(7), report.Issues[0].WagerID)
			mockWagers.AssertNotCalled(t, "SetWagerStatus",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// A failing transition on one wager never aborts the rest of the run.
func TestSettlementService_PerWagerErrorIsolation(t *testing.T) {
	ctx := context.Background()

	failing := &models.Wager{
		ID:     1,
		Stake:  dec("10"),
		Status: models.WagerStatusPending,
		Legs:   []*models.WagerLeg{openLeg(100, "1x2", "1", nil, "1.5")},
	}
	healthy := &models.Wager{
		ID:     2,
		Stake:  dec("10"),
		Status: models.WagerStatusPending,
		Legs:   []*models.WagerLeg{openLeg(101, "1x2", "2", nil, "2.0")},
	}

	mockFactory, _, _ := newSettlementMocks([]*models.Wager{failing, healthy})
	mockWagers := new(MockWagerService)
	provider := &stubProvider{results: map[int64]*models.FixtureResult{
		100: finishedResult(100, 1, 0),
		101: finishedResult(101, 0, 1),
	}}

	mockWagers.On("SetWagerStatus", mock.Anything, int64(1), models.WagerStatusWon, (*decimal.Decimal)(nil), "").
		Return(errors.New("deadlock detected"))
	mockWagers.On("SetWagerStatus", mock.Anything, int64(2), models.WagerStatusWon, (*decimal.Decimal)(nil), "").
		Return(nil)

	service := NewSettlementService(mockFactory, mockWagers, provider, 2)
	report, err := service.SettleOpenWagers(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 1, report.Settled)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, int64(1), report.Issues[0].WagerID)
	mockWagers.AssertExpectations(t)
}

func TestAggregateVerdict(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []outcome.Verdict
		want     models.WagerStatus
		ok       bool
	}{
		{"empty", nil, "", false},
		{"single won", []outcome.Verdict{outcome.VerdictWon}, models.WagerStatusWon, true},
		{"single lost", []outcome.Verdict{outcome.VerdictLost}, models.WagerStatusLost, true},
		{"single refunded", []outcome.Verdict{outcome.VerdictRefunded}, models.WagerStatusRefunded, true},
		{"all won", []outcome.Verdict{outcome.VerdictWon, outcome.VerdictWon}, models.WagerStatusWon, true},
		{"lost beats won", []outcome.Verdict{outcome.VerdictWon, outcome.VerdictLost}, models.WagerStatusLost, true},
		{"lost beats refunded", []outcome.Verdict{outcome.VerdictRefunded, outcome.VerdictLost}, models.WagerStatusLost, true},
		{"refund infects wins", []outcome.Verdict{outcome.VerdictWon, outcome.VerdictRefunded, outcome.VerdictWon}, models.WagerStatusRefunded, true},
		{"undetermined blocks", []outcome.Verdict{outcome.VerdictWon, outcome.VerdictUndetermined}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := aggregateVerdict(tt.verdicts)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
