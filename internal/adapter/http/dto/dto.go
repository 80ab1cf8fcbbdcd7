package dto

import (
	"time"

	"dao-governance/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ContributeRequest is the request body for a treasury contribution.
// Amount is a base-10 wei integer.
type ContributeRequest struct {
	Amount string `json:"amount" binding:"required,wei"`
}

// CreateProposalRequest is the request body for proposal creation.
type CreateProposalRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=4000"`
	Beneficiary string `json:"beneficiary" binding:"required,eth_address"`
	Amount      string `json:"amount" binding:"required,wei"`
}

// VoteRequest is the request body for casting a vote. Support is a pointer
// so that an explicit false passes the required check.
type VoteRequest struct {
	Support *bool `json:"support" binding:"required"`
}

// MaxEventPage bounds the page number of the event listing so the offset
// cannot overflow.
const MaxEventPage = 1_000_000

// EventListQuery holds the query string of the event listing.
type EventListQuery struct {
	Kind       string  `form:"kind" binding:"omitempty,oneof=CONTRIBUTED PROPOSAL_CREATED VOTE_CAST BENEFICIARY_PAID"`
	ProposalID *uint64 `form:"proposal_id"`
	Page       int     `form:"page" binding:"omitempty,min=1,max=1000000"`
	PageSize   int     `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MemberResponse is returned after a contribution.
type MemberResponse struct {
	Address            string `json:"address"`
	StakeholderBalance string `json:"stakeholder_balance"`
	ContributorBalance string `json:"contributor_balance"`
	IsStakeholder      bool   `json:"is_stakeholder"`
	IsContributor      bool   `json:"is_contributor"`
}

// BalancesResponse holds the caller's two contribution counters.
type BalancesResponse struct {
	Address            string `json:"address"`
	StakeholderBalance string `json:"stakeholder_balance"`
	ContributorBalance string `json:"contributor_balance"`
}

// StatusResponse holds the derived membership of an address.
type StatusResponse struct {
	Address       string `json:"address"`
	IsStakeholder bool   `json:"is_stakeholder"`
	IsContributor bool   `json:"is_contributor"`
}

// TreasuryResponse is the response for the owner's balance query.
type TreasuryResponse struct {
	TotalBalance string `json:"total_balance"`
}

// DeployerResponse names the ledger owner.
type DeployerResponse struct {
	Deployer string `json:"deployer"`
}

// ProposalResponse is a proposal with its derived status.
type ProposalResponse struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Beneficiary string  `json:"beneficiary"`
	Amount      string  `json:"amount"`
	UpVotes     uint64  `json:"up_votes"`
	DownVotes   uint64  `json:"down_votes"`
	Paid        bool    `json:"paid"`
	Status      string  `json:"status"`
	Proposer    string  `json:"proposer"`
	CreatedAt   string  `json:"created_at"`
	Deadline    string  `json:"deadline"`
	PaidAt      *string `json:"paid_at,omitempty"`
}

// TallyResponse is the vote count of a proposal and its receipts.
type TallyResponse struct {
	ProposalID uint64         `json:"proposal_id"`
	UpVotes    uint64         `json:"up_votes"`
	DownVotes  uint64         `json:"down_votes"`
	Votes      []VoteResponse `json:"votes"`
}

// VoteResponse is the receipt of a cast vote.
type VoteResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Support    bool   `json:"support"`
	CastAt     string `json:"cast_at"`
}

// EventResponse is one ledger event.
type EventResponse struct {
	ID          string  `json:"id"`
	Sequence    uint64  `json:"sequence"`
	Kind        string  `json:"kind"`
	Actor       string  `json:"actor"`
	ProposalID  *uint64 `json:"proposal_id,omitempty"`
	Beneficiary *string `json:"beneficiary,omitempty"`
	Amount      string  `json:"amount"`
	Tier        *string `json:"tier,omitempty"`
	Support     *bool   `json:"support,omitempty"`
	PrevHash    string  `json:"prev_hash"`
	Hash        string  `json:"hash"`
	CreatedAt   string  `json:"created_at"`
}

func NewMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		Address:            m.Address.Checksum(),
		StakeholderBalance: m.StakeholderBalance.String(),
		ContributorBalance: m.ContributorBalance.String(),
		IsStakeholder:      m.IsStakeholder(),
		IsContributor:      m.IsContributor(),
	}
}

func NewBalancesResponse(addr domain.Address, stakeholder, contributor decimal.Decimal) BalancesResponse {
	return BalancesResponse{
		Address:            addr.Checksum(),
		StakeholderBalance: stakeholder.String(),
		ContributorBalance: contributor.String(),
	}
}

// NewProposalResponse renders p with the status derived by the service.
func NewProposalResponse(p *domain.Proposal, status domain.ProposalStatus) ProposalResponse {
	resp := ProposalResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Beneficiary: p.Beneficiary.Checksum(),
		Amount:      p.Amount.String(),
		UpVotes:     p.UpVotes,
		DownVotes:   p.DownVotes,
		Paid:        p.Paid,
		Status:      string(status),
		Proposer:    p.Proposer.Checksum(),
		CreatedAt:   formatTime(p.CreatedAt),
		Deadline:    formatTime(p.Deadline),
	}
	if p.PaidAt != nil {
		s := formatTime(*p.PaidAt)
		resp.PaidAt = &s
	}
	return resp
}

func NewTallyResponse(t *domain.Tally) TallyResponse {
	votes := make([]VoteResponse, 0, len(t.Votes))
	for i := range t.Votes {
		votes = append(votes, NewVoteResponse(&t.Votes[i]))
	}
	return TallyResponse{ProposalID: t.ProposalID, UpVotes: t.UpVotes, DownVotes: t.DownVotes, Votes: votes}
}

func NewVoteResponse(v *domain.Vote) VoteResponse {
	return VoteResponse{
		ProposalID: v.ProposalID,
		Voter:      v.Voter.Checksum(),
		Support:    v.Support,
		CastAt:     formatTime(v.CastAt),
	}
}

func NewEventResponse(e *domain.LedgerEvent) EventResponse {
	resp := EventResponse{
		ID:         e.ID.String(),
		Sequence:   e.Sequence,
		Kind:       string(e.Kind),
		Actor:      e.Actor.Checksum(),
		ProposalID: e.ProposalID,
		Amount:     e.Amount.String(),
		Support:    e.Support,
		PrevHash:   e.PrevHash,
		Hash:       e.Hash,
		CreatedAt:  formatTime(e.CreatedAt),
	}
	if e.Beneficiary != nil {
		b := e.Beneficiary.Checksum()
		resp.Beneficiary = &b
	}
	if e.Tier != nil {
		t := string(*e.Tier)
		resp.Tier = &t
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
