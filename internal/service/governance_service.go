package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultEventPageSize = 20
	maxEventPageSize     = 100
	maxEventPage         = 1_000_000
)

// Operation names reported to the metrics recorder.
const (
	OpContribute     = "contribute"
	OpCreateProposal = "create_proposal"
	OpPerformVote    = "perform_vote"
	OpPayBeneficiary = "pay_beneficiary"
)

// Policy holds the governance constants.
type Policy struct {
	// StakeholderThreshold is the smallest single deposit, in wei, that is
	// credited to the stakeholder counter.
	StakeholderThreshold decimal.Decimal
	VotingPeriod         time.Duration
	// Quorum is the minimum number of votes cast for a proposal to pass.
	// Zero means a simple up > down majority.
	Quorum uint64
	// ChainKey keys the event hash chain.
	ChainKey string
}

// DefaultPolicy returns a 0.005 ETH threshold, a 7 day window and no quorum.
func DefaultPolicy() Policy {
	return Policy{
		StakeholderThreshold: domain.MustEther("0.005"),
		VotingPeriod:         7 * 24 * time.Hour,
	}
}

// GovernanceServiceImpl implements ports.GovernanceService.
//
// mu serializes calls: writes hold it exclusively for the whole call, reads
// share it. Within a write, the ledger-state row lock taken by
// LedgerStateRepository.GetForUpdate serializes writers across processes
// sharing one database.
type GovernanceServiceImpl struct {
	mu sync.RWMutex

	ledgerRepo   ports.LedgerStateRepository
	memberRepo   ports.MemberRepository
	proposalRepo ports.ProposalRepository
	voteRepo     ports.VoteRepository
	eventRepo    ports.EventRepository
	transactor   ports.DBTransactor
	chain        *EventChain
	clock        ports.Clock
	policy       Policy
	metrics      ports.MetricsRecorder
	log          zerolog.Logger
}

// NewGovernanceService creates a new GovernanceServiceImpl. A nil metrics
// recorder disables metrics.
func NewGovernanceService(
	store ports.Store,
	chain *EventChain,
	clock ports.Clock,
	policy Policy,
	metrics ports.MetricsRecorder,
	log zerolog.Logger,
) *GovernanceServiceImpl {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &GovernanceServiceImpl{
		ledgerRepo:   store.Ledger,
		memberRepo:   store.Members,
		proposalRepo: store.Proposals,
		voteRepo:     store.Votes,
		eventRepo:    store.Events,
		transactor:   store.Transactor,
		chain:        chain,
		clock:        clock,
		policy:       policy,
		metrics:      metrics,
		log:          log,
	}
}

// Initialize records owner as the immutable ledger owner.
func (s *GovernanceServiceImpl) Initialize(ctx context.Context, owner domain.Address) (*domain.LedgerState, error) {
	if owner.IsZero() {
		return nil, apperror.Validation("owner must be a non-zero address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	existing, err := s.ledgerRepo.GetForUpdate(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock ledger: %w", err))
	}
	if existing != nil {
		if !existing.IsOwner(owner) {
			return nil, apperror.ErrUnauthorized("ledger is already owned by another address")
		}
		return existing, nil
	}

	state := domain.NewLedgerState(owner, now)
	if err := s.ledgerRepo.Init(ctx, dbTx, state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("init ledger: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.metrics.SetTreasuryBalance(state.TotalBalance)
	s.log.Info().Str("owner", owner.Checksum()).Msg("ledger initialized")
	return state, nil
}

// ProposalStatus derives the lifecycle state of p now.
func (s *GovernanceServiceImpl) ProposalStatus(p *domain.Proposal) domain.ProposalStatus {
	return p.Status(s.now(), s.policy.Quorum)
}

// ListEvents returns a page of the ledger event log, oldest first.
func (s *GovernanceServiceImpl) ListEvents(ctx context.Context, params ports.EventListParams) ([]domain.LedgerEvent, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Page > maxEventPage {
		params.Page = maxEventPage
	}
	if params.PageSize < 1 {
		params.PageSize = defaultEventPageSize
	}
	if params.PageSize > maxEventPageSize {
		params.PageSize = maxEventPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, total, nil
}

// VerifyEvents recomputes the event hash chain and checks that its head
// matches the ledger state.
func (s *GovernanceServiceImpl) VerifyEvents(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.loadState(ctx)
	if err != nil {
		return err
	}
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list events: %w", err))
	}

	head, err := s.chain.VerifyChain(events)
	if err != nil {
		return err
	}
	if head != state.LastEventHash || uint64(len(events)) != state.EventCount {
		return fmt.Errorf("%w: head does not match ledger state", ErrChainBroken)
	}
	return nil
}

// now samples the clock once per call. Microsecond precision survives a
// PostgreSQL round trip, which keeps event hashes stable.
func (s *GovernanceServiceImpl) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

// loadState reads the committed ledger state.
func (s *GovernanceServiceImpl) loadState(ctx context.Context) (*domain.LedgerState, error) {
	state, err := s.ledgerRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get ledger: %w", err))
	}
	if state == nil {
		return nil, apperror.ErrLedgerNotInitialized()
	}
	return state, nil
}

// lockLedger opens a transaction and locks the ledger state. On error no
// transaction is left open.
func (s *GovernanceServiceImpl) lockLedger(ctx context.Context) (pgx.Tx, *domain.LedgerState, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	state, err := s.ledgerRepo.GetForUpdate(ctx, dbTx)
	if err != nil {
		dbTx.Rollback(ctx) //nolint:errcheck
		return nil, nil, apperror.InternalError(fmt.Errorf("lock ledger: %w", err))
	}
	if state == nil {
		dbTx.Rollback(ctx) //nolint:errcheck
		return nil, nil, apperror.ErrLedgerNotInitialized()
	}
	return dbTx, state, nil
}

// appendEvent seals event onto the chain and advances the head kept in state.
// The caller persists state afterwards.
func (s *GovernanceServiceImpl) appendEvent(ctx context.Context, dbTx pgx.Tx, state *domain.LedgerState, event *domain.LedgerEvent) error {
	event.ID = uuid.New()
	event.Sequence = state.EventCount + 1
	s.chain.Seal(event, state.LastEventHash)

	if err := s.eventRepo.Append(ctx, dbTx, event); err != nil {
		return fmt.Errorf("append %s event: %w", event.Kind, err)
	}

	state.EventCount = event.Sequence
	state.LastEventHash = event.Hash
	state.UpdatedAt = event.CreatedAt
	return nil
}

// commit persists state and commits the transaction.
func (s *GovernanceServiceImpl) commit(ctx context.Context, dbTx pgx.Tx, state *domain.LedgerState) error {
	if err := s.ledgerRepo.Update(ctx, dbTx, state); err != nil {
		return apperror.InternalError(fmt.Errorf("update ledger: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, error)      {}
func (nopMetrics) SetTreasuryBalance(decimal.Decimal) {}
