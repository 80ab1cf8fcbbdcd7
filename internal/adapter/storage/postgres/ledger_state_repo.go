package postgres

import (
	"context"
	"errors"
	"fmt"

	"dao-governance/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const ledgerStateColumns = `owner, total_balance::text, next_proposal_id, last_event_hash, event_count, created_at, updated_at`

// LedgerStateRepo implements ports.LedgerStateRepository over the single
// ledger_state row.
type LedgerStateRepo struct {
	pool Pool
}

// NewLedgerStateRepo creates a new LedgerStateRepo.
func NewLedgerStateRepo(pool Pool) *LedgerStateRepo {
	return &LedgerStateRepo{pool: pool}
}

// Get returns the committed ledger state, or nil if the ledger was never initialized.
func (r *LedgerStateRepo) Get(ctx context.Context) (*domain.LedgerState, error) {
	query := `SELECT ` + ledgerStateColumns + ` FROM ledger_state WHERE id = 1`

	s, err := scanLedgerState(r.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get ledger state: %w", err)
	}
	return s, nil
}

// GetForUpdate locks the ledger_state row until tx ends. Every write path
// takes this lock first.
func (r *LedgerStateRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error) {
	query := `SELECT ` + ledgerStateColumns + ` FROM ledger_state WHERE id = 1 FOR UPDATE`

	s, err := scanLedgerState(tx.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get ledger state for update: %w", err)
	}
	return s, nil
}

// Init inserts the ledger_state row. It fails if the row already exists.
func (r *LedgerStateRepo) Init(ctx context.Context, tx pgx.Tx, s *domain.LedgerState) error {
	query := `INSERT INTO ledger_state (id, owner, total_balance, next_proposal_id, last_event_hash, event_count, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		s.Owner, s.TotalBalance.String(), s.NextProposalID,
		s.LastEventHash, s.EventCount, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("ledger already initialized")
	}
	return nil
}

// Update writes the mutable fields. Owner and created_at are fixed at Init.
func (r *LedgerStateRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.LedgerState) error {
	query := `UPDATE ledger_state
		SET total_balance = $1, next_proposal_id = $2, last_event_hash = $3, event_count = $4, updated_at = $5
		WHERE id = 1`

	tag, err := tx.Exec(ctx, query,
		s.TotalBalance.String(), s.NextProposalID, s.LastEventHash, s.EventCount, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ledger state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("ledger state not found")
	}
	return nil
}

func scanLedgerState(row pgx.Row) (*domain.LedgerState, error) {
	s := &domain.LedgerState{}
	var total string
	err := row.Scan(
		&s.Owner, &total, &s.NextProposalID, &s.LastEventHash,
		&s.EventCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if s.TotalBalance, err = parseNumeric(total); err != nil {
		return nil, err
	}
	return s, nil
}

// parseNumeric converts a NUMERIC column read as text.
func parseNumeric(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}
