package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dao-governance/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const proposalColumns = `id, title, description, beneficiary, amount::text, up_votes, down_votes,
	paid, proposer, created_at, deadline, paid_at`

// ProposalRepo implements ports.ProposalRepository.
type ProposalRepo struct {
	pool Pool
}

// NewProposalRepo creates a new ProposalRepo.
func NewProposalRepo(pool Pool) *ProposalRepo {
	return &ProposalRepo{pool: pool}
}

// Create inserts a new proposal. The id comes from ledger_state.next_proposal_id.
func (r *ProposalRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Proposal) error {
	query := `INSERT INTO proposals (id, title, description, beneficiary, amount, up_votes, down_votes,
		paid, proposer, created_at, deadline, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.Title, p.Description, p.Beneficiary, p.Amount.String(),
		p.UpVotes, p.DownVotes, p.Paid, p.Proposer,
		p.CreatedAt, p.Deadline, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

// GetByID fetches a proposal (without locking).
func (r *ProposalRepo) GetByID(ctx context.Context, id uint64) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal by id: %w", err)
	}
	return p, nil
}

// GetByIDForUpdate fetches a proposal with pessimistic locking.
// This MUST be called within a transaction.
func (r *ProposalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`

	p, err := scanProposal(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal for update: %w", err)
	}
	return p, nil
}

// List returns every proposal in id order.
func (r *ProposalRepo) List(ctx context.Context) ([]domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	proposals := []domain.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal row: %w", err)
		}
		proposals = append(proposals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposal rows: %w", err)
	}
	return proposals, nil
}

// UpdateTally overwrites the vote counts within a database transaction.
func (r *ProposalRepo) UpdateTally(ctx context.Context, tx pgx.Tx, id uint64, upVotes, downVotes uint64) error {
	query := `UPDATE proposals SET up_votes = $1, down_votes = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, upVotes, downVotes, id)
	if err != nil {
		return fmt.Errorf("update proposal tally: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("proposal not found: %d", id)
	}
	return nil
}

// MarkPaid flags an unpaid proposal as paid.
func (r *ProposalRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uint64, paidAt time.Time) error {
	query := `UPDATE proposals SET paid = TRUE, paid_at = $1 WHERE id = $2 AND paid = FALSE`

	tag, err := tx.Exec(ctx, query, paidAt, id)
	if err != nil {
		return fmt.Errorf("mark proposal paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unpaid proposal not found: %d", id)
	}
	return nil
}

// scanProposal returns pgx.ErrNoRows unwrapped so callers can map it.
func scanProposal(row pgx.Row) (*domain.Proposal, error) {
	p := &domain.Proposal{}
	var amount string
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Beneficiary, &amount,
		&p.UpVotes, &p.DownVotes, &p.Paid, &p.Proposer,
		&p.CreatedAt, &p.Deadline, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	return p, nil
}
