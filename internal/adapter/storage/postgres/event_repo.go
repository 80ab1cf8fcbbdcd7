package postgres

import (
	"context"
	"fmt"
	"strings"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, sequence, kind, actor, proposal_id, beneficiary, amount::text, tier, support,
	prev_hash, hash, created_at`

// EventRepo implements ports.EventRepository over the append-only ledger_events table.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Append inserts a sealed event within a database transaction.
func (r *EventRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.LedgerEvent) error {
	query := `INSERT INTO ledger_events (id, sequence, kind, actor, proposal_id, beneficiary, amount, tier, support,
		prev_hash, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.Sequence, e.Kind, e.Actor, e.ProposalID, e.Beneficiary,
		e.Amount.String(), e.Tier, e.Support, e.PrevHash, e.Hash, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

// List fetches events with filtering and pagination, in sequence order.
func (r *EventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.LedgerEvent, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, *params.Kind)
		argIdx++
	}
	if params.ProposalID != nil {
		conditions = append(conditions, fmt.Sprintf("proposal_id = $%d", argIdx))
		args = append(args, *params.ProposalID)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ledger_events %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger events: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	if offset < 0 {
		offset = 0
	}
	dataQuery := fmt.Sprintf(`SELECT %s FROM ledger_events %s ORDER BY sequence LIMIT $%d OFFSET $%d`,
		eventColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	events, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListAll returns the full log in sequence order.
func (r *EventRepo) ListAll(ctx context.Context) ([]domain.LedgerEvent, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM ledger_events ORDER BY sequence`)
}

func (r *EventRepo) query(ctx context.Context, query string, args ...any) ([]domain.LedgerEvent, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	events := []domain.LedgerEvent{}
	for rows.Next() {
		e := domain.LedgerEvent{}
		var amount string
		err := rows.Scan(
			&e.ID, &e.Sequence, &e.Kind, &e.Actor, &e.ProposalID, &e.Beneficiary,
			&amount, &e.Tier, &e.Support, &e.PrevHash, &e.Hash, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event row: %w", err)
		}
		if e.Amount, err = parseNumeric(amount); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger event rows: %w", err)
	}
	return events, nil
}
