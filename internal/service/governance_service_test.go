package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"dao-governance/internal/adapter/storage/memory"
	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr       = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	stakeholderAddr = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	otherStakeAddr  = domain.MustParseAddress("0x90f79bf6eb2c4f870365e785982e1f101e93b906")
	contributorAddr = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	beneficiaryAddr = domain.MustParseAddress("0x15d34aaf54267db7d7c367839aaf71a00a2c6a65")
	strangerAddr    = domain.MustParseAddress("0x9965507d1a55bcc2695c58ba16fb37d819b0a4dc")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type governanceFixture struct {
	svc   *GovernanceServiceImpl
	clock *fakeClock
	ctx   context.Context
}

func setupGovernance(t *testing.T) *governanceFixture {
	return setupGovernanceWithPolicy(t, DefaultPolicy())
}

func setupGovernanceWithPolicy(t *testing.T, policy Policy) *governanceFixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	chain := NewEventChain(NewHMACSignatureService(), "test-chain-key")
	svc := NewGovernanceService(store.Repositories(), chain, clock, policy, nil, zerolog.Nop())

	ctx := context.Background()
	_, err := svc.Initialize(ctx, ownerAddr)
	require.NoError(t, err)

	return &governanceFixture{svc: svc, clock: clock, ctx: ctx}
}

func (f *governanceFixture) contribute(t *testing.T, caller domain.Address, ether string) {
	t.Helper()
	_, err := f.svc.Contribute(f.ctx, caller, domain.MustEther(ether))
	require.NoError(t, err)
}

func (f *governanceFixture) propose(t *testing.T, caller domain.Address, ether string) *domain.Proposal {
	t.Helper()
	p, err := f.svc.CreateProposal(f.ctx, ports.CreateProposalRequest{
		Caller:      caller,
		Title:       "title",
		Description: "desc",
		Beneficiary: beneficiaryAddr,
		Amount:      domain.MustEther(ether),
	})
	require.NoError(t, err)
	return p
}

func (f *governanceFixture) eventCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.svc.ListEvents(f.ctx, ports.EventListParams{})
	require.NoError(t, err)
	return total
}

// ==================== Treasury & Membership ====================

func TestGovernance_Contribute_BelowThresholdIsContributor(t *testing.T) {
	values := []string{"0.000000000000000001", "0.001", "0.004999999999999999"}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			f := setupGovernance(t)
			f.contribute(t, contributorAddr, v)

			ok, err := f.svc.IsContributor(f.ctx, contributorAddr)
			require.NoError(t, err)
			assert.True(t, ok)

			bal, err := f.svc.ContributorBalance(f.ctx, contributorAddr)
			require.NoError(t, err)
			assert.True(t, bal.Equal(domain.MustEther(v)), "got %s", bal)

			ok, err = f.svc.IsStakeholder(f.ctx, contributorAddr)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGovernance_Contribute_AtOrAboveThresholdIsStakeholder(t *testing.T) {
	values := []string{"0.005", "0.0050000001", "10"}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			f := setupGovernance(t)
			f.contribute(t, stakeholderAddr, v)

			ok, err := f.svc.IsStakeholder(f.ctx, stakeholderAddr)
			require.NoError(t, err)
			assert.True(t, ok)

			bal, err := f.svc.StakeholderBalance(f.ctx, stakeholderAddr)
			require.NoError(t, err)
			assert.True(t, bal.Equal(domain.MustEther(v)), "got %s", bal)

			cbal, err := f.svc.ContributorBalance(f.ctx, stakeholderAddr)
			require.NoError(t, err)
			assert.True(t, cbal.IsZero())
		})
	}
}

func TestGovernance_Contribute_InvalidAmount(t *testing.T) {
	f := setupGovernance(t)

	for _, v := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		_, err := f.svc.Contribute(f.ctx, contributorAddr, v)
		assertAppError(t, err, apperror.CodeInvalidAmount)
	}

	ok, err := f.svc.IsContributor(f.ctx, contributorAddr)
	require.NoError(t, err)
	assert.False(t, ok)

	total, err := f.svc.TotalBalance(f.ctx, ownerAddr)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Equal(t, int64(0), f.eventCount(t))
}

func TestGovernance_Contribute_IndependentCounters(t *testing.T) {
	f := setupGovernance(t)

	// Contributor who later crosses the threshold keeps the earlier small deposit.
	f.contribute(t, contributorAddr, "0.001")
	f.contribute(t, contributorAddr, "0.01")

	cbal, _ := f.svc.ContributorBalance(f.ctx, contributorAddr)
	sbal, _ := f.svc.StakeholderBalance(f.ctx, contributorAddr)
	assert.True(t, cbal.Equal(domain.MustEther("0.001")))
	assert.True(t, sbal.Equal(domain.MustEther("0.01")))

	// Stakeholder's later small deposit lands in the contributor counter.
	f.contribute(t, stakeholderAddr, "0.005")
	f.contribute(t, stakeholderAddr, "0.005")
	f.contribute(t, stakeholderAddr, "0.002")

	sbal, _ = f.svc.StakeholderBalance(f.ctx, stakeholderAddr)
	cbal, _ = f.svc.ContributorBalance(f.ctx, stakeholderAddr)
	assert.True(t, sbal.Equal(domain.MustEther("0.01")))
	assert.True(t, cbal.Equal(domain.MustEther("0.002")))

	isS, _ := f.svc.IsStakeholder(f.ctx, stakeholderAddr)
	isC, _ := f.svc.IsContributor(f.ctx, stakeholderAddr)
	assert.True(t, isS)
	assert.True(t, isC)
}

func TestGovernance_Balances_UnknownAddressIsZero(t *testing.T) {
	f := setupGovernance(t)

	sbal, err := f.svc.StakeholderBalance(f.ctx, strangerAddr)
	require.NoError(t, err)
	assert.True(t, sbal.IsZero())

	cbal, err := f.svc.ContributorBalance(f.ctx, strangerAddr)
	require.NoError(t, err)
	assert.True(t, cbal.IsZero())
}

func TestGovernance_TotalBalance_OwnerOnly(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")
	f.contribute(t, contributorAddr, "0.001")

	total, err := f.svc.TotalBalance(f.ctx, ownerAddr)
	require.NoError(t, err)
	assert.True(t, total.Equal(domain.MustEther("0.006")))

	_, err = f.svc.TotalBalance(f.ctx, stakeholderAddr)
	assertAppError(t, err, apperror.CodeUnauthorized)
}

func TestGovernance_Deployer(t *testing.T) {
	f := setupGovernance(t)

	owner, err := f.svc.Deployer(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, owner)
}

func TestGovernance_Initialize(t *testing.T) {
	f := setupGovernance(t)

	state, err := f.svc.Initialize(f.ctx, ownerAddr)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, state.Owner)

	_, err = f.svc.Initialize(f.ctx, strangerAddr)
	assertAppError(t, err, apperror.CodeUnauthorized)

	_, err = f.svc.Initialize(f.ctx, domain.ZeroAddress)
	assertAppError(t, err, "REQ_001")

	owner, _ := f.svc.Deployer(f.ctx)
	assert.Equal(t, ownerAddr, owner)
}

func TestGovernance_NotInitialized(t *testing.T) {
	svc := NewGovernanceService(memory.NewStore().Repositories(),
		NewEventChain(NewHMACSignatureService(), "k"), newFakeClock(), DefaultPolicy(), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Contribute(ctx, stakeholderAddr, domain.MustEther("1"))
	assertAppError(t, err, "SYS_002")

	_, err = svc.Deployer(ctx)
	assertAppError(t, err, "SYS_002")
}

// ==================== Proposals ====================

func TestGovernance_CreateProposal_NonStakeholderUnauthorized(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, contributorAddr, "0.001")

	for _, caller := range []domain.Address{contributorAddr, strangerAddr, ownerAddr} {
		_, err := f.svc.CreateProposal(f.ctx, ports.CreateProposalRequest{
			Caller:      caller,
			Title:       "t",
			Beneficiary: beneficiaryAddr,
			Amount:      domain.MustEther("1"),
		})
		assertAppError(t, err, apperror.CodeUnauthorized)
	}

	list, err := f.svc.ListProposals(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// No id was consumed.
	f.contribute(t, stakeholderAddr, "0.005")
	p := f.propose(t, stakeholderAddr, "1")
	assert.Equal(t, uint64(0), p.ID)
}

func TestGovernance_CreateProposal_Validation(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")

	tests := []struct {
		name        string
		caller      domain.Address
		beneficiary domain.Address
		amount      decimal.Decimal
		code        string
	}{
		{"zero beneficiary", stakeholderAddr, domain.ZeroAddress, domain.MustEther("1"), apperror.CodeInvalidBeneficiary},
		{"zero amount", stakeholderAddr, beneficiaryAddr, decimal.Zero, apperror.CodeInvalidAmount},
		{"negative amount", stakeholderAddr, beneficiaryAddr, decimal.NewFromInt(-5), apperror.CodeInvalidAmount},
		{"unauthorized checked first", strangerAddr, domain.ZeroAddress, decimal.Zero, apperror.CodeUnauthorized},
		{"beneficiary checked before amount", stakeholderAddr, domain.ZeroAddress, decimal.Zero, apperror.CodeInvalidBeneficiary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProposal(f.ctx, ports.CreateProposalRequest{
				Caller:      tt.caller,
				Title:       "t",
				Beneficiary: tt.beneficiary,
				Amount:      tt.amount,
			})
			assertAppError(t, err, tt.code)
		})
	}

	list, _ := f.svc.ListProposals(f.ctx)
	assert.Empty(t, list)
}

func TestGovernance_CreateProposal_SequentialIDsAndDeadline(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")

	start := f.clock.Now()
	for i := 0; i < 3; i++ {
		p := f.propose(t, stakeholderAddr, "1")
		assert.Equal(t, uint64(i), p.ID)
		assert.Equal(t, start.Add(7*24*time.Hour), p.Deadline)
		assert.Equal(t, stakeholderAddr, p.Proposer)
	}

	list, err := f.svc.ListProposals(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, p := range list {
		assert.Equal(t, uint64(i), p.ID)
	}
}

func TestGovernance_GetProposal_NotFound(t *testing.T) {
	f := setupGovernance(t)

	_, err := f.svc.GetProposal(f.ctx, 0)
	assertAppError(t, err, apperror.CodeNotFound)

	_, err = f.svc.GetProposalVote(f.ctx, 42)
	assertAppError(t, err, apperror.CodeNotFound)
}

// ==================== Voting ====================

func TestGovernance_PerformVote_DoubleVote(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")
	p := f.propose(t, stakeholderAddr, "1")

	vote, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, false)
	require.NoError(t, err)
	assert.False(t, vote.Support)

	tally, err := f.svc.GetProposalVote(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tally.UpVotes)
	assert.Equal(t, uint64(1), tally.DownVotes)
	require.Len(t, tally.Votes, 1)
	assert.Equal(t, stakeholderAddr, tally.Votes[0].Voter)
	assert.False(t, tally.Votes[0].Support)

	_, err = f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	assertAppError(t, err, apperror.CodeAlreadyVoted)
	assert.Contains(t, err.Error(), "double voting is not allowed")

	tally, _ = f.svc.GetProposalVote(f.ctx, p.ID)
	assert.Equal(t, uint64(0), tally.UpVotes)
	assert.Equal(t, uint64(1), tally.DownVotes)
	assert.Len(t, tally.Votes, 1)
}

func TestGovernance_PerformVote_AfterDeadline(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")
	f.contribute(t, otherStakeAddr, "0.005")
	p := f.propose(t, stakeholderAddr, "1")

	// Just before the deadline voting is still open.
	f.clock.Advance(7*24*time.Hour - time.Microsecond)
	_, err := f.svc.PerformVote(f.ctx, otherStakeAddr, p.ID, true)
	require.NoError(t, err)

	// At the deadline voting is closed.
	f.clock.Advance(time.Microsecond)
	_, err = f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	assertAppError(t, err, apperror.CodeVotingClosed)
	assert.Contains(t, err.Error(), "Time has already passed")

	tally, _ := f.svc.GetProposalVote(f.ctx, p.ID)
	assert.Equal(t, uint64(1), tally.UpVotes)
	assert.Equal(t, uint64(0), tally.DownVotes)
}

func TestGovernance_PerformVote_Errors(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")
	f.contribute(t, contributorAddr, "0.001")
	p := f.propose(t, stakeholderAddr, "1")

	_, err := f.svc.PerformVote(f.ctx, contributorAddr, p.ID, true)
	assertAppError(t, err, apperror.CodeUnauthorized)

	_, err = f.svc.PerformVote(f.ctx, strangerAddr, 99, true)
	assertAppError(t, err, apperror.CodeUnauthorized)

	_, err = f.svc.PerformVote(f.ctx, stakeholderAddr, 99, true)
	assertAppError(t, err, apperror.CodeNotFound)

	tally, _ := f.svc.GetProposalVote(f.ctx, p.ID)
	assert.Equal(t, uint64(0), tally.UpVotes)
	assert.Equal(t, uint64(0), tally.DownVotes)
	assert.Empty(t, tally.Votes)
}

func TestGovernance_PerformVote_ConcurrentStakeholders(t *testing.T) {
	f := setupGovernance(t)
	f.contribute(t, stakeholderAddr, "0.005")
	p := f.propose(t, stakeholderAddr, "1")

	const voters = 20
	addrs := make([]domain.Address, voters)
	for i := range addrs {
		addrs[i] = domain.MustParseAddress(fmt.Sprintf("0x%040x", i+1000))
		f.contribute(t, addrs[i], "0.005")
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters*2)
	for i, addr := range addrs {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(addr domain.Address, support bool) {
				defer wg.Done()
				if _, err := f.svc.PerformVote(f.ctx, addr, p.ID, support); err != nil {
					errs <- err
				}
			}(addr, i%2 == 0)
		}
	}
	wg.Wait()
	close(errs)

	rejected := 0
	for err := range errs {
		assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyVoted), "unexpected error: %v", err)
		rejected++
	}
	assert.Equal(t, voters, rejected)

	tally, _ := f.svc.GetProposalVote(f.ctx, p.ID)
	assert.Equal(t, uint64(voters/2), tally.UpVotes)
	assert.Equal(t, uint64(voters/2), tally.DownVotes)
}

// ==================== Payout ====================

func fundedProposal(t *testing.T, f *governanceFixture, amount string) *domain.Proposal {
	t.Helper()
	f.contribute(t, stakeholderAddr, "1")
	f.contribute(t, otherStakeAddr, "1")
	return f.propose(t, stakeholderAddr, amount)
}

func TestGovernance_PayBeneficiary_VotingOpen(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "0.5")
	_, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	require.NoError(t, err)

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	assertAppError(t, err, apperror.CodeVotingOpen)
}

func TestGovernance_PayBeneficiary_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		votes []bool
	}{
		{"no votes", nil},
		{"tie", []bool{true, false}},
		{"majority down", []bool{false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupGovernance(t)
			p := fundedProposal(t, f, "0.5")
			voters := []domain.Address{stakeholderAddr, otherStakeAddr}
			for i, support := range tt.votes {
				_, err := f.svc.PerformVote(f.ctx, voters[i], p.ID, support)
				require.NoError(t, err)
			}
			f.clock.Advance(8 * 24 * time.Hour)

			_, err := f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
			assertAppError(t, err, apperror.CodeProposalRejected)

			got, _ := f.svc.GetProposal(f.ctx, p.ID)
			assert.False(t, got.Paid)
			assert.Equal(t, domain.ProposalStatusRejected, f.svc.ProposalStatus(got))
		})
	}
}

func TestGovernance_PayBeneficiary_SucceedsExactlyOnce(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "0.5")
	_, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	require.NoError(t, err)

	got, _ := f.svc.GetProposal(f.ctx, p.ID)
	assert.Equal(t, domain.ProposalStatusVoting, f.svc.ProposalStatus(got))

	f.clock.Advance(7 * 24 * time.Hour)
	assert.Equal(t, domain.ProposalStatusPassed, f.svc.ProposalStatus(got))

	paid, err := f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	total, _ := f.svc.TotalBalance(f.ctx, ownerAddr)
	assert.True(t, total.Equal(domain.MustEther("1.5")), "got %s", total)

	got, _ = f.svc.GetProposal(f.ctx, p.ID)
	assert.True(t, got.Paid)
	assert.Equal(t, domain.ProposalStatusPaid, f.svc.ProposalStatus(got))

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	assertAppError(t, err, apperror.CodeAlreadyPaid)

	total, _ = f.svc.TotalBalance(f.ctx, ownerAddr)
	assert.True(t, total.Equal(domain.MustEther("1.5")))
}

func TestGovernance_PayBeneficiary_InsufficientFunds(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "10")
	_, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	assertAppError(t, err, apperror.CodeInsufficientFunds)

	got, _ := f.svc.GetProposal(f.ctx, p.ID)
	assert.False(t, got.Paid)
	total, _ := f.svc.TotalBalance(f.ctx, ownerAddr)
	assert.True(t, total.Equal(domain.MustEther("2")))
}

func TestGovernance_PayBeneficiary_ExactTreasury(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "2")
	_, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	require.NoError(t, err)

	total, _ := f.svc.TotalBalance(f.ctx, ownerAddr)
	assert.True(t, total.IsZero())
}

func TestGovernance_PayBeneficiary_CheckOrder(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "0.5")

	_, err := f.svc.PayBeneficiary(f.ctx, stakeholderAddr, 99)
	assertAppError(t, err, apperror.CodeUnauthorized)

	_, err = f.svc.PayBeneficiary(f.ctx, stakeholderAddr, p.ID)
	assertAppError(t, err, apperror.CodeUnauthorized)

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, 99)
	assertAppError(t, err, apperror.CodeNotFound)
}

func TestGovernance_Quorum(t *testing.T) {
	policy := DefaultPolicy()
	policy.Quorum = 2
	f := setupGovernanceWithPolicy(t, policy)
	p := fundedProposal(t, f, "0.5")

	_, err := f.svc.PerformVote(f.ctx, stakeholderAddr, p.ID, true)
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	_, err = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	assertAppError(t, err, apperror.CodeProposalRejected)
}

// ==================== Events ====================

func TestGovernance_FailedCallsAppendNoEvents(t *testing.T) {
	f := setupGovernance(t)
	p := fundedProposal(t, f, "0.5")
	before := f.eventCount(t)

	_, _ = f.svc.Contribute(f.ctx, strangerAddr, decimal.Zero)
	_, _ = f.svc.PerformVote(f.ctx, contributorAddr, p.ID, true)
	_, _ = f.svc.PayBeneficiary(f.ctx, ownerAddr, p.ID)
	_, _ = f.svc.CreateProposal(f.ctx, ports.CreateProposalRequest{Caller: strangerAddr})

	assert.Equal(t, before, f.eventCount(t))
	require.NoError(t, f.svc.VerifyEvents(f.ctx))
}

func TestGovernance_ListEvents_Paging(t *testing.T) {
	f := setupGovernance(t)
	for i := 0; i < 25; i++ {
		f.contribute(t, contributorAddr, "0.001")
	}

	page, total, err := f.svc.ListEvents(f.ctx, ports.EventListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, page, 20)
	assert.Equal(t, uint64(1), page[0].Sequence)

	page, _, err = f.svc.ListEvents(f.ctx, ports.EventListParams{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, page, 5)
	assert.Equal(t, uint64(21), page[0].Sequence)

	kind := domain.EventContributed
	_, total, err = f.svc.ListEvents(f.ctx, ports.EventListParams{Kind: &kind, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)

	page, total, err = f.svc.ListEvents(f.ctx, ports.EventListParams{Page: math.MaxInt / 10, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Empty(t, page)
}

// ==================== Scenario ====================

func TestGovernance_Scenario(t *testing.T) {
	f := setupGovernance(t)

	f.contribute(t, stakeholderAddr, "0.005")
	bal, err := f.svc.StakeholderBalance(f.ctx, stakeholderAddr)
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000", bal.String())

	f.contribute(t, contributorAddr, "0.001")
	cbal, err := f.svc.ContributorBalance(f.ctx, contributorAddr)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", cbal.String())

	isS, _ := f.svc.IsStakeholder(f.ctx, stakeholderAddr)
	isC, _ := f.svc.IsContributor(f.ctx, contributorAddr)
	assert.True(t, isS)
	assert.True(t, isC)

	created := f.propose(t, stakeholderAddr, "10")
	assert.Equal(t, uint64(0), created.ID)

	p, err := f.svc.GetProposal(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "title", p.Title)
	assert.Equal(t, "desc", p.Description)
	assert.Equal(t, beneficiaryAddr, p.Beneficiary)
	assert.Equal(t, "10000000000000000000", p.Amount.String())
	assert.Equal(t, uint64(0), p.UpVotes)
	assert.Equal(t, uint64(0), p.DownVotes)
	assert.False(t, p.Paid)

	_, err = f.svc.PerformVote(f.ctx, stakeholderAddr, 0, true)
	require.NoError(t, err)

	tally, err := f.svc.GetProposalVote(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tally.UpVotes)
	assert.Equal(t, uint64(0), tally.DownVotes)

	events, total, err := f.svc.ListEvents(f.ctx, ports.EventListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, domain.EventContributed, events[0].Kind)
	assert.Equal(t, domain.EventProposalCreated, events[2].Kind)
	assert.Equal(t, domain.EventVoteCast, events[3].Kind)
	require.NoError(t, f.svc.VerifyEvents(f.ctx))
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
