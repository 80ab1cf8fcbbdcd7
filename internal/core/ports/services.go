package ports

import (
	"context"
	"time"

	"dao-governance/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Clock supplies the time a call is evaluated at. It is sampled once per call.
type Clock interface {
	Now() time.Time
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(caller domain.Address) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Caller domain.Address
}

// IdempotencyCache is the Redis-layer store for replaying write responses.
// Reserve marks a key as in flight; it returns false if the key is already
// reserved by a concurrent request.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// MetricsRecorder receives governance operation outcomes.
type MetricsRecorder interface {
	ObserveOperation(operation string, err error)
	SetTreasuryBalance(wei decimal.Decimal)
}

// --- Service Ports (Business Logic) ---

// GovernanceService is the governance ledger: treasury, membership,
// proposals, voting and payout. Every call is atomic with respect to every
// other call and leaves state unchanged when it fails.
type GovernanceService interface {
	// Initialize records the ledger owner. Repeating it with the same owner
	// is a no-op; a different owner is rejected.
	Initialize(ctx context.Context, owner domain.Address) (*domain.LedgerState, error)

	// Treasury
	Contribute(ctx context.Context, caller domain.Address, value decimal.Decimal) (*domain.Member, error)
	StakeholderBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error)
	ContributorBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error)
	TotalBalance(ctx context.Context, caller domain.Address) (decimal.Decimal, error)
	Deployer(ctx context.Context) (domain.Address, error)

	// Membership
	IsStakeholder(ctx context.Context, addr domain.Address) (bool, error)
	IsContributor(ctx context.Context, addr domain.Address) (bool, error)

	// Proposals
	CreateProposal(ctx context.Context, req CreateProposalRequest) (*domain.Proposal, error)
	GetProposal(ctx context.Context, id uint64) (*domain.Proposal, error)
	ListProposals(ctx context.Context) ([]domain.Proposal, error)

	// Voting
	PerformVote(ctx context.Context, caller domain.Address, id uint64, support bool) (*domain.Vote, error)
	GetProposalVote(ctx context.Context, id uint64) (*domain.Tally, error)

	// Payout
	PayBeneficiary(ctx context.Context, caller domain.Address, id uint64) (*domain.Proposal, error)

	// Event log
	ListEvents(ctx context.Context, params EventListParams) ([]domain.LedgerEvent, int64, error)
	VerifyEvents(ctx context.Context) error

	// ProposalStatus derives the lifecycle state of p at the current time.
	ProposalStatus(p *domain.Proposal) domain.ProposalStatus
}

// CreateProposalRequest holds validated input for proposal creation.
type CreateProposalRequest struct {
	Caller      domain.Address
	Title       string
	Description string
	Beneficiary domain.Address
	Amount      decimal.Decimal
}
