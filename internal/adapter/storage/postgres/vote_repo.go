package postgres

import (
	"context"
	"fmt"

	"dao-governance/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// VoteRepo implements ports.VoteRepository. The (proposal_id, voter) primary
// key rejects a second vote even if the service check were bypassed.
type VoteRepo struct {
	pool Pool
}

// NewVoteRepo creates a new VoteRepo.
func NewVoteRepo(pool Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Exists reports whether voter already voted on the proposal.
func (r *VoteRepo) Exists(ctx context.Context, tx pgx.Tx, proposalID uint64, voter domain.Address) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM votes WHERE proposal_id = $1 AND voter = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, proposalID, voter).Scan(&exists); err != nil {
		return false, fmt.Errorf("check vote exists: %w", err)
	}
	return exists, nil
}

// Create inserts a vote receipt within a database transaction.
func (r *VoteRepo) Create(ctx context.Context, tx pgx.Tx, v *domain.Vote) error {
	query := `INSERT INTO votes (proposal_id, voter, support, cast_at) VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, query, v.ProposalID, v.Voter, v.Support, v.CastAt); err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

// ListByProposal returns the receipts of a proposal, oldest first.
func (r *VoteRepo) ListByProposal(ctx context.Context, proposalID uint64) ([]domain.Vote, error) {
	query := `SELECT proposal_id, voter, support, cast_at FROM votes
		WHERE proposal_id = $1 ORDER BY cast_at, voter`

	rows, err := r.pool.Query(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		v := domain.Vote{}
		if err := rows.Scan(&v.ProposalID, &v.Voter, &v.Support, &v.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote rows: %w", err)
	}
	return votes, nil
}
