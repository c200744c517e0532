package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bookie/models"
)

// WagerRepository implements the service.WagerRepository interface
type WagerRepository struct {
	q queryable
}

// newWagerRepositoryWithTx creates a new wager repository bound to a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, reference, account_id, stake, total_odd, potential_win, win_amount,
	status, notes, created_at, settled_at, cancelled_at`

func scanWager(row pgx.Row) (*models.Wager, error) {
	var w models.Wager
	err := row.Scan(
		&w.ID,
		&w.Reference,
		&w.AccountID,
		&w.Stake,
		&w.TotalOdd,
		&w.PotentialWin,
		&w.WinAmount,
		&w.Status,
		&w.Notes,
		&w.CreatedAt,
		&w.SettledAt,
		&w.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persists a wager with its legs atomically. It returns
// ErrDuplicateReference when the generated reference collides so the caller
// can regenerate and retry.
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	query := `
		INSERT INTO wagers (reference, account_id, stake, total_odd, potential_win, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.Reference,
		wager.AccountID,
		wager.Stake,
		wager.TotalOdd,
		wager.PotentialWin,
		wager.Status,
		wager.Notes,
	).Scan(&wager.ID, &wager.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("wager reference %q: %w", wager.Reference, models.ErrDuplicateReference)
	}
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}

	legQuery := `
		INSERT INTO wager_legs (wager_id, fixture_id, market_type, outcome_key, line, odd)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for _, leg := range wager.Legs {
		leg.WagerID = wager.ID
		err := r.q.QueryRow(ctx, legQuery,
			leg.WagerID,
			leg.FixtureID,
			leg.MarketType,
			leg.OutcomeKey,
			leg.Line,
			leg.Odd,
		).Scan(&leg.ID)
		if err != nil {
			return fmt.Errorf("failed to create wager leg: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a wager with its legs, or nil when absent.
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}

	if err := r.loadLegs(ctx, wager); err != nil {
		return nil, err
	}
	return wager, nil
}

// GetByIDForUpdate retrieves a wager with a row lock so two concurrent
// transitions on the same wager serialize.
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1 FOR UPDATE`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wager %d: %w", id, err)
	}

	if err := r.loadLegs(ctx, wager); err != nil {
		return nil, err
	}
	return wager, nil
}

// Update persists a wager's settlement fields.
func (r *WagerRepository) Update(ctx context.Context, wager *models.Wager) error {
	query := `
		UPDATE wagers
		SET status = $1, win_amount = $2, notes = $3, settled_at = $4, cancelled_at = $5
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		wager.Status,
		wager.WinAmount,
		wager.Notes,
		wager.SettledAt,
		wager.CancelledAt,
		wager.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wager %d: %w", wager.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wager %d: %w", wager.ID, models.ErrNotFound)
	}
	return nil
}

// GetOpen returns all wagers awaiting settlement, optionally scoped to one
// account.
func (r *WagerRepository) GetOpen(ctx context.Context, accountID *int64) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status IN ('pending', 'active')`
	args := []any{}
	if accountID != nil {
		query += ` AND account_id = $1`
		args = append(args, *accountID)
	}
	query += ` ORDER BY created_at`

	return r.queryWagers(ctx, query, args...)
}

// GetByAccount returns the most recent wagers for an account.
func (r *WagerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryWagers(ctx, query, accountID, limit)
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*models.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	for _, wager := range wagers {
		if err := r.loadLegs(ctx, wager); err != nil {
			return nil, err
		}
	}
	return wagers, nil
}

func (r *WagerRepository) loadLegs(ctx context.Context, wager *models.Wager) error {
	query := `
		SELECT id, wager_id, fixture_id, market_type, outcome_key, line, odd
		FROM wager_legs
		WHERE wager_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, wager.ID)
	if err != nil {
		return fmt.Errorf("failed to load legs for wager %d: %w", wager.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg models.WagerLeg
		err := rows.Scan(
			&leg.ID,
			&leg.WagerID,
			&leg.FixtureID,
			&leg.MarketType,
			&leg.OutcomeKey,
			&leg.Line,
			&leg.Odd,
		)
		if err != nil {
			return fmt.Errorf("failed to scan wager leg: %w", err)
		}
		wager.Legs = append(wager.Legs, &leg)
	}
	return rows.Err()
}
