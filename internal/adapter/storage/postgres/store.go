package postgres

import (
	"context"

	"dao-governance/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor on the pool.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new Transactor.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a database transaction at the pool's default isolation level.
// Writers serialize on the ledger_state row lock.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}

// NewStore wires the PostgreSQL repositories behind the storage ports.
func NewStore(pool Pool) ports.Store {
	return ports.Store{
		Ledger:     NewLedgerStateRepo(pool),
		Members:    NewMemberRepo(pool),
		Proposals:  NewProposalRepo(pool),
		Votes:      NewVoteRepo(pool),
		Events:     NewEventRepo(pool),
		Transactor: NewTransactor(pool),
	}
}
