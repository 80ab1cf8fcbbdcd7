package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalStatus is derived from the proposal record and the current time.
type ProposalStatus string

const (
	ProposalStatusVoting   ProposalStatus = "VOTING"
	ProposalStatusPassed   ProposalStatus = "PASSED"
	ProposalStatusRejected ProposalStatus = "REJECTED"
	ProposalStatusPaid     ProposalStatus = "PAID"
)

// Proposal is a funding request subject to a time-boxed stakeholder vote.
// Only UpVotes, DownVotes, Paid and PaidAt change after creation.
type Proposal struct {
	ID          uint64          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Beneficiary Address         `json:"beneficiary"`
	Amount      decimal.Decimal `json:"amount"`
	UpVotes     uint64          `json:"up_votes"`
	DownVotes   uint64          `json:"down_votes"`
	Paid        bool            `json:"paid"`
	Proposer    Address         `json:"proposer"`
	CreatedAt   time.Time       `json:"created_at"`
	Deadline    time.Time       `json:"deadline"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// VotingOpen returns true while now is strictly before the deadline.
func (p *Proposal) VotingOpen(now time.Time) bool {
	return now.Before(p.Deadline)
}

// Passes applies the outcome rule: strictly more up than down votes and at
// least quorum votes cast. A quorum of zero disables the minimum.
func (p *Proposal) Passes(quorum uint64) bool {
	return p.UpVotes > p.DownVotes && p.UpVotes+p.DownVotes >= quorum
}

// Status derives the lifecycle state. PAID and REJECTED are terminal.
func (p *Proposal) Status(now time.Time, quorum uint64) ProposalStatus {
	switch {
	case p.Paid:
		return ProposalStatusPaid
	case p.VotingOpen(now):
		return ProposalStatusVoting
	case p.Passes(quorum):
		return ProposalStatusPassed
	default:
		return ProposalStatusRejected
	}
}

// Tally returns the current vote counts.
func (p *Proposal) Tally() Tally {
	return Tally{ProposalID: p.ID, UpVotes: p.UpVotes, DownVotes: p.DownVotes}
}
