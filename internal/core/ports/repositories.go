package ports

import (
	"context"
	"time"

	"dao-governance/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// LedgerStateRepository persists the single ledger-state row.
// GetForUpdate locks the row for the rest of the transaction; every write
// call takes this lock first, which serializes writers across processes.
type LedgerStateRepository interface {
	Get(ctx context.Context) (*domain.LedgerState, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error)
	Init(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error
	Update(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error
}

// MemberRepository persists per-address contribution counters.
// Get returns nil, nil when the address never contributed.
type MemberRepository interface {
	Get(ctx context.Context, addr domain.Address) (*domain.Member, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, addr domain.Address) (*domain.Member, error)
	Upsert(ctx context.Context, tx pgx.Tx, member *domain.Member) error
}

// ProposalRepository persists proposal records indexed by sequential id.
type ProposalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, proposal *domain.Proposal) error
	GetByID(ctx context.Context, id uint64) (*domain.Proposal, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*domain.Proposal, error)
	List(ctx context.Context) ([]domain.Proposal, error)
	UpdateTally(ctx context.Context, tx pgx.Tx, id uint64, upVotes, downVotes uint64) error
	MarkPaid(ctx context.Context, tx pgx.Tx, id uint64, paidAt time.Time) error
}

// VoteRepository persists vote receipts. (ProposalID, Voter) is unique.
type VoteRepository interface {
	Exists(ctx context.Context, tx pgx.Tx, proposalID uint64, voter domain.Address) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, vote *domain.Vote) error
	ListByProposal(ctx context.Context, proposalID uint64) ([]domain.Vote, error)
}

// EventRepository persists the append-only ledger event log.
type EventRepository interface {
	Append(ctx context.Context, tx pgx.Tx, event *domain.LedgerEvent) error
	List(ctx context.Context, params EventListParams) ([]domain.LedgerEvent, int64, error)
	// ListAll returns every event ordered by sequence, for chain verification.
	ListAll(ctx context.Context) ([]domain.LedgerEvent, error)
}

// EventListParams holds filter + pagination for listing ledger events.
type EventListParams struct {
	Kind       *domain.EventKind
	ProposalID *uint64
	Page       int
	PageSize   int
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles the repositories and transactor of one storage backend.
type Store struct {
	Ledger     LedgerStateRepository
	Members    MemberRepository
	Proposals  ProposalRepository
	Votes      VoteRepository
	Events     EventRepository
	Transactor DBTransactor
}
