// Package memory is a single-process ledger store. Writes made through a
// transaction are staged and become visible only when it commits, so a
// rolled-back call leaves no trace.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrForeignTx is returned when a repository receives a transaction that was
// not started by the same Store.
var ErrForeignTx = errors.New("memory: transaction does not belong to this store")

type voteKey struct {
	proposalID uint64
	voter      domain.Address
}

// Store holds committed ledger state.
type Store struct {
	mu        sync.RWMutex
	state     *domain.LedgerState
	members   map[domain.Address]domain.Member
	proposals []domain.Proposal
	votes     map[voteKey]domain.Vote
	events    []domain.LedgerEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		members: make(map[domain.Address]domain.Member),
		votes:   make(map[voteKey]domain.Vote),
	}
}

// Repositories returns the store's repositories and transactor.
func (s *Store) Repositories() ports.Store {
	return ports.Store{
		Ledger:     &LedgerStateRepo{store: s},
		Members:    &MemberRepo{store: s},
		Proposals:  &ProposalRepo{store: s},
		Votes:      &VoteRepo{store: s},
		Events:     &EventRepo{store: s},
		Transactor: s,
	}
}

// Begin starts a staging transaction.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return &Tx{store: s}, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Name returns the dependency name.
func (s *Store) Name() string {
	return "memory"
}

// Tx stages mutations and applies them atomically on Commit.
// It satisfies pgx.Tx; the SQL methods are unsupported.
type Tx struct {
	store  *Store
	staged []func(*Store)
	closed bool
}

func (t *Tx) stage(fn func(*Store)) {
	t.staged = append(t.staged, fn)
}

// Commit applies every staged mutation under the store's write lock.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, fn := range t.staged {
		fn(t.store)
	}
	t.staged = nil
	return nil
}

// Rollback discards staged mutations.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.staged = nil
	return nil
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errUnsupported("Begin")
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errUnsupported("CopyFrom")
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errUnsupported("Prepare")
}

func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnsupported("Exec")
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errUnsupported("Query")
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (t *Tx) Conn() *pgx.Conn { return nil }

func errUnsupported(method string) error {
	return fmt.Errorf("memory: %s is not supported", method)
}

// own checks that tx was opened by s and is still usable.
func (s *Store) own(tx pgx.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx.store != s {
		return nil, ErrForeignTx
	}
	if mtx.closed {
		return nil, pgx.ErrTxClosed
	}
	return mtx, nil
}
