package service

import (
	"context"
	"fmt"

	"dao-governance/internal/core/domain"
	"dao-governance/pkg/apperror"
)

// PerformVote records caller's single vote on proposal id while its voting
// window is open. This is the only path that changes a proposal's tally.
func (s *GovernanceServiceImpl) PerformVote(ctx context.Context, caller domain.Address, id uint64, support bool) (vote *domain.Vote, err error) {
	defer func() { s.metrics.ObserveOperation(OpPerformVote, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	member, err := s.memberRepo.GetForUpdate(ctx, dbTx, caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock member: %w", err))
	}
	if !member.IsStakeholder() {
		return nil, apperror.ErrUnauthorized("only stakeholders can vote")
	}

	proposal, err := s.proposalRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock proposal: %w", err))
	}
	if proposal == nil {
		return nil, apperror.ErrNotFound("Proposal")
	}
	if !proposal.VotingOpen(now) {
		return nil, apperror.ErrVotingClosed()
	}

	voted, err := s.voteRepo.Exists(ctx, dbTx, id, caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check vote: %w", err))
	}
	if voted {
		return nil, apperror.ErrAlreadyVoted()
	}

	vote = &domain.Vote{ProposalID: id, Voter: caller, Support: support, CastAt: now}
	if err := s.voteRepo.Create(ctx, dbTx, vote); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record vote: %w", err))
	}

	if support {
		proposal.UpVotes++
	} else {
		proposal.DownVotes++
	}
	if err := s.proposalRepo.UpdateTally(ctx, dbTx, id, proposal.UpVotes, proposal.DownVotes); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update tally: %w", err))
	}

	event := &domain.LedgerEvent{
		Kind:       domain.EventVoteCast,
		Actor:      caller,
		ProposalID: &id,
		Support:    &support,
		CreatedAt:  now,
	}
	if err := s.appendEvent(ctx, dbTx, state, event); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.commit(ctx, dbTx, state); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("proposal_id", id).
		Str("voter", caller.Checksum()).
		Bool("support", support).
		Uint64("up_votes", proposal.UpVotes).
		Uint64("down_votes", proposal.DownVotes).
		Msg("vote cast")

	return vote, nil
}

// GetProposalVote returns the current tally of proposal id and the votes
// behind it.
func (s *GovernanceServiceImpl) GetProposalVote(ctx context.Context, id uint64) (*domain.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposal, err := s.getProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	votes, err := s.voteRepo.ListByProposal(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list votes: %w", err))
	}
	tally := proposal.Tally()
	tally.Votes = votes
	return &tally, nil
}
