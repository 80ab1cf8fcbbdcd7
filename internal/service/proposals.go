package service

import (
	"context"
	"fmt"

	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/pkg/apperror"
)

// CreateProposal opens a funding request with a fresh sequential id and a
// deadline one voting period from now. Only stakeholders may propose.
func (s *GovernanceServiceImpl) CreateProposal(ctx context.Context, req ports.CreateProposalRequest) (proposal *domain.Proposal, err error) {
	defer func() { s.metrics.ObserveOperation(OpCreateProposal, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	member, err := s.memberRepo.GetForUpdate(ctx, dbTx, req.Caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock member: %w", err))
	}
	if !member.IsStakeholder() {
		return nil, apperror.ErrUnauthorized("only stakeholders can create proposals")
	}
	if req.Beneficiary.IsZero() {
		return nil, apperror.ErrInvalidBeneficiary()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	proposal = &domain.Proposal{
		ID:          state.NextProposalID,
		Title:       req.Title,
		Description: req.Description,
		Beneficiary: req.Beneficiary,
		Amount:      req.Amount,
		Proposer:    req.Caller,
		CreatedAt:   now,
		Deadline:    now.Add(s.policy.VotingPeriod),
	}
	if err := s.proposalRepo.Create(ctx, dbTx, proposal); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create proposal: %w", err))
	}
	state.NextProposalID++

	id := proposal.ID
	beneficiary := proposal.Beneficiary
	event := &domain.LedgerEvent{
		Kind:        domain.EventProposalCreated,
		Actor:       req.Caller,
		ProposalID:  &id,
		Beneficiary: &beneficiary,
		Amount:      proposal.Amount,
		CreatedAt:   now,
	}
	if err := s.appendEvent(ctx, dbTx, state, event); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.commit(ctx, dbTx, state); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("proposal_id", proposal.ID).
		Str("proposer", req.Caller.Checksum()).
		Str("beneficiary", req.Beneficiary.Checksum()).
		Str("amount", req.Amount.String()).
		Time("deadline", proposal.Deadline).
		Msg("proposal created")

	return proposal, nil
}

// GetProposal returns proposal id.
func (s *GovernanceServiceImpl) GetProposal(ctx context.Context, id uint64) (*domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProposal(ctx, id)
}

// ListProposals returns every proposal ordered by id.
func (s *GovernanceServiceImpl) ListProposals(ctx context.Context) ([]domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposals, err := s.proposalRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list proposals: %w", err))
	}
	return proposals, nil
}

func (s *GovernanceServiceImpl) getProposal(ctx context.Context, id uint64) (*domain.Proposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get proposal: %w", err))
	}
	if proposal == nil {
		return nil, apperror.ErrNotFound("Proposal")
	}
	return proposal, nil
}
