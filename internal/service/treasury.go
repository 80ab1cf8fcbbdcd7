package service

import (
	"context"
	"fmt"

	"dao-governance/internal/core/domain"
	"dao-governance/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Contribute deposits value from caller into the treasury. A deposit at or
// above the stakeholder threshold is credited to the caller's stakeholder
// counter, anything smaller to the contributor counter. Earlier deposits are
// never reclassified.
func (s *GovernanceServiceImpl) Contribute(ctx context.Context, caller domain.Address, value decimal.Decimal) (member *domain.Member, err error) {
	defer func() { s.metrics.ObserveOperation(OpContribute, err) }()

	if !value.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	dbTx, state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	member, err = s.memberRepo.GetForUpdate(ctx, dbTx, caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock member: %w", err))
	}
	if member == nil {
		member = domain.NewMember(caller, now)
	}

	tier := domain.ClassifyDeposit(value, s.policy.StakeholderThreshold)
	member.Credit(tier, value, now)
	if err := s.memberRepo.Upsert(ctx, dbTx, member); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert member: %w", err))
	}

	state.TotalBalance = state.TotalBalance.Add(value)

	event := &domain.LedgerEvent{
		Kind:      domain.EventContributed,
		Actor:     caller,
		Amount:    value,
		Tier:      &tier,
		CreatedAt: now,
	}
	if err := s.appendEvent(ctx, dbTx, state, event); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.commit(ctx, dbTx, state); err != nil {
		return nil, err
	}

	s.metrics.SetTreasuryBalance(state.TotalBalance)
	s.log.Info().
		Str("caller", caller.Checksum()).
		Str("amount", value.String()).
		Str("tier", string(tier)).
		Msg("contribution recorded")

	return member, nil
}

// StakeholderBalance returns caller's stakeholder counter, zero if absent.
func (s *GovernanceServiceImpl) StakeholderBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error) {
	member, err := s.getMember(ctx, caller)
	if err != nil || member == nil {
		return decimal.Zero, err
	}
	return member.StakeholderBalance, nil
}

// ContributorBalance returns caller's contributor counter, zero if absent.
func (s *GovernanceServiceImpl) ContributorBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error) {
	member, err := s.getMember(ctx, caller)
	if err != nil || member == nil {
		return decimal.Zero, err
	}
	return member.ContributorBalance, nil
}

// TotalBalance returns the treasury's held value. Only the owner may read it.
func (s *GovernanceServiceImpl) TotalBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.loadState(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !state.IsOwner(caller) {
		return decimal.Zero, apperror.ErrUnauthorized("only the owner can read the total balance")
	}
	return state.TotalBalance, nil
}

// Deployer returns the ledger owner.
func (s *GovernanceServiceImpl) Deployer(ctx context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.loadState(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	return state.Owner, nil
}

// IsStakeholder is recomputed from the stakeholder counter on every call.
func (s *GovernanceServiceImpl) IsStakeholder(ctx context.Context, addr domain.Address) (bool, error) {
	member, err := s.getMember(ctx, addr)
	if err != nil {
		return false, err
	}
	return member.IsStakeholder(), nil
}

// IsContributor is recomputed from the contributor counter on every call.
func (s *GovernanceServiceImpl) IsContributor(ctx context.Context, addr domain.Address) (bool, error) {
	member, err := s.getMember(ctx, addr)
	if err != nil {
		return false, err
	}
	return member.IsContributor(), nil
}

func (s *GovernanceServiceImpl) getMember(ctx context.Context, addr domain.Address) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, err := s.memberRepo.Get(ctx, addr)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get member: %w", err))
	}
	return member, nil
}
