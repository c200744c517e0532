package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus represents the lifecycle state of a wager
type WagerStatus string

const (
	WagerStatusPending   WagerStatus = "pending"
	WagerStatusActive    WagerStatus = "active"
	WagerStatusWon       WagerStatus = "won"
	WagerStatusLost      WagerStatus = "lost"
	WagerStatusCancelled WagerStatus = "cancelled"
	WagerStatusRefunded  WagerStatus = "refunded"
)

// IsValid reports whether s is a known wager status.
func (s WagerStatus) IsValid() bool {
	switch s {
	case WagerStatusPending, WagerStatusActive, WagerStatusWon,
		WagerStatusLost, WagerStatusCancelled, WagerStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether s is a settled state. Terminal states carry a
// balance effect that must be reversed before any further transition.
func (s WagerStatus) IsTerminal() bool {
	switch s {
	case WagerStatusWon, WagerStatusLost, WagerStatusCancelled, WagerStatusRefunded:
		return true
	}
	return false
}

// Wager represents a single or combined ("express") wager. PotentialWin is
// fixed at creation time from the product of leg odds and never recomputed.
type Wager struct {
	ID           int64            `db:"id"`
	Reference    string           `db:"reference"`
	AccountID    int64            `db:"account_id"`
	Stake        decimal.Decimal  `db:"stake"`
	TotalOdd     decimal.Decimal  `db:"total_odd"`
	PotentialWin decimal.Decimal  `db:"potential_win"`
	WinAmount    *decimal.Decimal `db:"win_amount"`
	Status       WagerStatus      `db:"status"`
	Notes        string           `db:"notes"`
	Legs         []*WagerLeg      `db:"-"`
	CreatedAt    time.Time        `db:"created_at"`
	SettledAt    *time.Time       `db:"settled_at"`
	CancelledAt  *time.Time       `db:"cancelled_at"`
}

// WagerLeg is one outcome prediction within a wager, referencing a fixture.
// MarketType and OutcomeKey carry the upstream encoding; Line holds the
// numeric value for total/handicap style markets.
type WagerLeg struct {
	ID         int64            `db:"id"`
	WagerID    int64            `db:"wager_id"`
	FixtureID  int64            `db:"fixture_id"`
	MarketType string           `db:"market_type"`
	OutcomeKey string           `db:"outcome_key"`
	Line       *decimal.Decimal `db:"line"`
	Odd        decimal.Decimal  `db:"odd"`
}

// IsCombined reports whether the wager has more than one leg.
func (w *Wager) IsCombined() bool {
	return len(w.Legs) > 1
}

// IsOpen reports whether the wager is still awaiting settlement.
func (w *Wager) IsOpen() bool {
	return w.Status == WagerStatusPending || w.Status == WagerStatusActive
}

// RecordedWinAmount returns the win amount persisted at settlement, or zero
// if the wager never paid out.
func (w *Wager) RecordedWinAmount() decimal.Decimal {
	if w.WinAmount == nil {
		return decimal.Zero
	}
	return *w.WinAmount
}

// StatusEffect returns the amount credited to the account balance when a
// wager enters the given status. Reversing a prior status debits the same
// amount, so every transition is computed from this one table rather than
// re-derived per call site.
func StatusEffect(status WagerStatus, stake, winAmount decimal.Decimal) decimal.Decimal {
	switch status {
	case WagerStatusWon:
		return winAmount
	case WagerStatusCancelled, WagerStatusRefunded:
		return stake
	default:
		return decimal.Zero
	}
}

// TotalOddFromLegs multiplies the leg odds into the aggregate wager odd.
func TotalOddFromLegs(legs []*WagerLeg) decimal.Decimal {
	odd := decimal.NewFromInt(1)
	for _, leg := range legs {
		odd = odd.Mul(leg.Odd)
	}
	return odd
}
