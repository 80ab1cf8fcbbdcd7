package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind identifies the state transition an event records.
type EventKind string

const (
	EventContributed     EventKind = "CONTRIBUTED"
	EventProposalCreated EventKind = "PROPOSAL_CREATED"
	EventVoteCast        EventKind = "VOTE_CAST"
	EventBeneficiaryPaid EventKind = "BENEFICIARY_PAID"
)

// LedgerEvent is one entry of the append-only, hash-chained ledger log.
// Hash covers PrevHash and every other field through CanonicalString.
type LedgerEvent struct {
	ID          uuid.UUID       `json:"id"`
	Sequence    uint64          `json:"sequence"`
	Kind        EventKind       `json:"kind"`
	Actor       Address         `json:"actor"`
	ProposalID  *uint64         `json:"proposal_id,omitempty"`
	Beneficiary *Address        `json:"beneficiary,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Tier        *Tier           `json:"tier,omitempty"`
	Support     *bool           `json:"support,omitempty"`
	PrevHash    string          `json:"prev_hash"`
	Hash        string          `json:"hash"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CanonicalString is the payload signed into Hash.
// Format: PREV|SEQ|KIND|ACTOR|PROPOSAL|BENEFICIARY|AMOUNT|TIER|SUPPORT|UNIXNANO
func (e *LedgerEvent) CanonicalString() string {
	proposal := "-"
	if e.ProposalID != nil {
		proposal = strconv.FormatUint(*e.ProposalID, 10)
	}
	beneficiary := "-"
	if e.Beneficiary != nil {
		beneficiary = string(*e.Beneficiary)
	}
	tier := "-"
	if e.Tier != nil {
		tier = string(*e.Tier)
	}
	support := "-"
	if e.Support != nil {
		support = strconv.FormatBool(*e.Support)
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s|%s|%s|%d",
		e.PrevHash, e.Sequence, e.Kind, e.Actor, proposal, beneficiary,
		e.Amount.String(), tier, support, e.CreatedAt.UnixNano())
}
