package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerState is the single treasury record: who owns the ledger, how much it
// holds, the next proposal id and the head of the event chain.
type LedgerState struct {
	Owner          Address         `json:"owner"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	NextProposalID uint64          `json:"next_proposal_id"`
	LastEventHash  string          `json:"-"` // head of the event hash chain
	EventCount     uint64          `json:"event_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewLedgerState returns the initial state for a ledger owned by owner.
func NewLedgerState(owner Address, now time.Time) *LedgerState {
	return &LedgerState{
		Owner:        owner,
		TotalBalance: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsOwner returns true if addr is the ledger owner.
func (s *LedgerState) IsOwner(addr Address) bool {
	return s.Owner == addr
}

// CanCover returns true if the treasury holds at least amount.
func (s *LedgerState) CanCover(amount decimal.Decimal) bool {
	return s.TotalBalance.GreaterThanOrEqual(amount)
}
