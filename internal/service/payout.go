package service

import (
	"context"
	"fmt"

	"dao-governance/internal/core/domain"
	"dao-governance/pkg/apperror"
)

// PayBeneficiary releases a passed proposal's amount from the treasury to its
// beneficiary and marks it paid. Only the owner may pay, only after the
// window closes, and only once.
func (s *GovernanceServiceImpl) PayBeneficiary(ctx context.Context, caller domain.Address, id uint64) (proposal *domain.Proposal, err error) {
	defer func() { s.metrics.ObserveOperation(OpPayBeneficiary, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if !state.IsOwner(caller) {
		return nil, apperror.ErrUnauthorized("only the owner can pay beneficiaries")
	}

	proposal, err = s.proposalRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock proposal: %w", err))
	}
	if proposal == nil {
		return nil, apperror.ErrNotFound("Proposal")
	}
	if proposal.VotingOpen(now) {
		return nil, apperror.ErrVotingOpen()
	}
	if proposal.Paid {
		return nil, apperror.ErrAlreadyPaid()
	}
	if !proposal.Passes(s.policy.Quorum) {
		return nil, apperror.ErrProposalRejected()
	}
	if !state.CanCover(proposal.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	if err := s.proposalRepo.MarkPaid(ctx, dbTx, id, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark paid: %w", err))
	}
	state.TotalBalance = state.TotalBalance.Sub(proposal.Amount)

	beneficiary := proposal.Beneficiary
	event := &domain.LedgerEvent{
		Kind:        domain.EventBeneficiaryPaid,
		Actor:       caller,
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

	proposal.Paid = true
	proposal.PaidAt = &now

	s.metrics.SetTreasuryBalance(state.TotalBalance)
	s.log.Info().
		Uint64("proposal_id", id).
		Str("beneficiary", beneficiary.Checksum()).
		Str("amount", proposal.Amount.String()).
		Str("treasury", state.TotalBalance.String()).
		Msg("beneficiary paid")

	return proposal, nil
}
