package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Reads always observe committed state.

// --- Ledger State ---

// LedgerStateRepo implements ports.LedgerStateRepository.
type LedgerStateRepo struct {
	store *Store
}

func (r *LedgerStateRepo) Get(ctx context.Context) (*domain.LedgerState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if r.store.state == nil {
		return nil, nil
	}
	state := *r.store.state
	return &state, nil
}

// GetForUpdate reads the state. The service's write lock serializes writers,
// so no row lock is needed here.
func (r *LedgerStateRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error) {
	if _, err := r.store.own(tx); err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (r *LedgerStateRepo) Init(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	r.store.mu.RLock()
	exists := r.store.state != nil
	r.store.mu.RUnlock()
	if exists {
		return errors.New("memory: ledger already initialized")
	}
	staged := *state
	mtx.stage(func(s *Store) { s.state = &staged })
	return nil
}

func (r *LedgerStateRepo) Update(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	staged := *state
	mtx.stage(func(s *Store) {
		// Owner and creation time are fixed at Init.
		if s.state != nil {
			staged.Owner = s.state.Owner
			staged.CreatedAt = s.state.CreatedAt
		}
		s.state = &staged
	})
	return nil
}

// --- Members ---

// MemberRepo implements ports.MemberRepository.
type MemberRepo struct {
	store *Store
}

func (r *MemberRepo) Get(ctx context.Context, addr domain.Address) (*domain.Member, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.members[addr]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MemberRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, addr domain.Address) (*domain.Member, error) {
	if _, err := r.store.own(tx); err != nil {
		return nil, err
	}
	return r.Get(ctx, addr)
}

func (r *MemberRepo) Upsert(ctx context.Context, tx pgx.Tx, member *domain.Member) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	staged := *member
	mtx.stage(func(s *Store) { s.members[staged.Address] = staged })
	return nil
}

// --- Proposals ---

// ProposalRepo implements ports.ProposalRepository.
type ProposalRepo struct {
	store *Store
}

func (r *ProposalRepo) Create(ctx context.Context, tx pgx.Tx, proposal *domain.Proposal) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	r.store.mu.RLock()
	next := uint64(len(r.store.proposals))
	r.store.mu.RUnlock()
	if proposal.ID != next {
		return fmt.Errorf("memory: proposal id %d out of sequence, next is %d", proposal.ID, next)
	}
	staged := *proposal
	mtx.stage(func(s *Store) { s.proposals = append(s.proposals, staged) })
	return nil
}

func (r *ProposalRepo) GetByID(ctx context.Context, id uint64) (*domain.Proposal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if id >= uint64(len(r.store.proposals)) {
		return nil, nil
	}
	p := r.store.proposals[id]
	return &p, nil
}

func (r *ProposalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*domain.Proposal, error) {
	if _, err := r.store.own(tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ProposalRepo) List(ctx context.Context) ([]domain.Proposal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.Proposal, len(r.store.proposals))
	copy(out, r.store.proposals)
	return out, nil
}

func (r *ProposalRepo) UpdateTally(ctx context.Context, tx pgx.Tx, id uint64, upVotes, downVotes uint64) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	if err := r.checkExists(id); err != nil {
		return err
	}
	mtx.stage(func(s *Store) {
		s.proposals[id].UpVotes = upVotes
		s.proposals[id].DownVotes = downVotes
	})
	return nil
}

func (r *ProposalRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uint64, paidAt time.Time) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	if err := r.checkExists(id); err != nil {
		return err
	}
	mtx.stage(func(s *Store) {
		s.proposals[id].Paid = true
		s.proposals[id].PaidAt = &paidAt
	})
	return nil
}

func (r *ProposalRepo) checkExists(id uint64) error {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if id >= uint64(len(r.store.proposals)) {
		return fmt.Errorf("memory: proposal %d not found", id)
	}
	return nil
}

// --- Votes ---

// VoteRepo implements ports.VoteRepository.
type VoteRepo struct {
	store *Store
}

func (r *VoteRepo) Exists(ctx context.Context, tx pgx.Tx, proposalID uint64, voter domain.Address) (bool, error) {
	if _, err := r.store.own(tx); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.votes[voteKey{proposalID, voter}]
	return ok, nil
}

func (r *VoteRepo) Create(ctx context.Context, tx pgx.Tx, vote *domain.Vote) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	key := voteKey{vote.ProposalID, vote.Voter}
	r.store.mu.RLock()
	_, dup := r.store.votes[key]
	r.store.mu.RUnlock()
	if dup {
		return fmt.Errorf("memory: duplicate vote for proposal %d by %s", vote.ProposalID, vote.Voter)
	}
	staged := *vote
	mtx.stage(func(s *Store) { s.votes[key] = staged })
	return nil
}

func (r *VoteRepo) ListByProposal(ctx context.Context, proposalID uint64) ([]domain.Vote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Vote
	for k, v := range r.store.votes {
		if k.proposalID == proposalID {
			out = append(out, v)
		}
	}
	sortVotes(out)
	return out, nil
}

func sortVotes(votes []domain.Vote) {
	slices.SortFunc(votes, func(a, b domain.Vote) int {
		if c := a.CastAt.Compare(b.CastAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Voter, b.Voter)
	})
}

// --- Events ---

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	store *Store
}

func (r *EventRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.LedgerEvent) error {
	mtx, err := r.store.own(tx)
	if err != nil {
		return err
	}
	staged := *event
	mtx.stage(func(s *Store) { s.events = append(s.events, staged) })
	return nil
}

func (r *EventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.LedgerEvent, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var filtered []domain.LedgerEvent
	for _, e := range r.store.events {
		if params.Kind != nil && e.Kind != *params.Kind {
			continue
		}
		if params.ProposalID != nil && (e.ProposalID == nil || *e.ProposalID != *params.ProposalID) {
			continue
		}
		filtered = append(filtered, e)
	}

	total := int64(len(filtered))
	offset := (params.Page - 1) * params.PageSize
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return []domain.LedgerEvent{}, total, nil
	}
	end := offset + params.PageSize
	if params.PageSize <= 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (r *EventRepo) ListAll(ctx context.Context) ([]domain.LedgerEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.LedgerEvent, len(r.store.events))
	copy(out, r.store.events)
	return out, nil
}
