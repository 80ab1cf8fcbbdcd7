package postgres

import (
	"context"
	"errors"
	"fmt"

	"dao-governance/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const memberColumns = `address, stakeholder_balance::text, contributor_balance::text, created_at, updated_at`

// MemberRepo implements ports.MemberRepository.
type MemberRepo struct {
	pool Pool
}

// NewMemberRepo creates a new MemberRepo.
func NewMemberRepo(pool Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

// Get fetches a member by address. Addresses that never contributed return nil, nil.
func (r *MemberRepo) Get(ctx context.Context, addr domain.Address) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE address = $1`

	m, err := scanMember(r.pool.QueryRow(ctx, query, addr))
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetForUpdate fetches a member with a row lock.
// This MUST be called within a transaction.
func (r *MemberRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, addr domain.Address) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE address = $1 FOR UPDATE`

	m, err := scanMember(tx.QueryRow(ctx, query, addr))
	if err != nil {
		return nil, fmt.Errorf("get member for update: %w", err)
	}
	return m, nil
}

// Upsert inserts the member or overwrites its counters.
func (r *MemberRepo) Upsert(ctx context.Context, tx pgx.Tx, m *domain.Member) error {
	query := `INSERT INTO members (address, stakeholder_balance, contributor_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE
		SET stakeholder_balance = EXCLUDED.stakeholder_balance,
			contributor_balance = EXCLUDED.contributor_balance,
			updated_at = EXCLUDED.updated_at`

	_, err := tx.Exec(ctx, query,
		m.Address, m.StakeholderBalance.String(), m.ContributorBalance.String(),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	m := &domain.Member{}
	var stake, contrib string
	if err := row.Scan(&m.Address, &stake, &contrib, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if m.StakeholderBalance, err = parseNumeric(stake); err != nil {
		return nil, err
	}
	if m.ContributorBalance, err = parseNumeric(contrib); err != nil {
		return nil, err
	}
	return m, nil
}
