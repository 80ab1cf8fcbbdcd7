package postgres

import (
	"time"

	"dao-governance/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var (
	ownerAddr       = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	stakeholderAddr = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	beneficiaryAddr = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newTestLedgerState() *domain.LedgerState {
	s := domain.NewLedgerState(ownerAddr, testNow())
	s.TotalBalance = decimal.RequireFromString("10000000000000000000")
	s.NextProposalID = 2
	s.LastEventHash = "abc123"
	s.EventCount = 5
	return s
}

func ledgerStateRow(s *domain.LedgerState) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"owner", "total_balance", "next_proposal_id", "last_event_hash", "event_count", "created_at", "updated_at",
	}).AddRow(
		s.Owner, s.TotalBalance.String(), s.NextProposalID, s.LastEventHash,
		s.EventCount, s.CreatedAt, s.UpdatedAt,
	)
}

func newTestProposal(id uint64) *domain.Proposal {
	now := testNow()
	return &domain.Proposal{
		ID:          id,
		Title:       "Fund audit",
		Description: "Pay for an external audit of the treasury",
		Beneficiary: beneficiaryAddr,
		Amount:      domain.MustEther("1.5"),
		Proposer:    stakeholderAddr,
		CreatedAt:   now,
		Deadline:    now.Add(7 * 24 * time.Hour),
	}
}

func proposalColumnNames() []string {
	return []string{
		"id", "title", "description", "beneficiary", "amount", "up_votes", "down_votes",
		"paid", "proposer", "created_at", "deadline", "paid_at",
	}
}

func addProposalRow(rows *pgxmock.Rows, p *domain.Proposal) *pgxmock.Rows {
	return rows.AddRow(
		p.ID, p.Title, p.Description, p.Beneficiary, p.Amount.String(),
		p.UpVotes, p.DownVotes, p.Paid, p.Proposer,
		p.CreatedAt, p.Deadline, p.PaidAt,
	)
}

func eventColumnNames() []string {
	return []string{
		"id", "sequence", "kind", "actor", "proposal_id", "beneficiary", "amount", "tier", "support",
		"prev_hash", "hash", "created_at",
	}
}

func newTestEvent(seq uint64, kind domain.EventKind) *domain.LedgerEvent {
	return &domain.LedgerEvent{
		ID:        uuid.New(),
		Sequence:  seq,
		Kind:      kind,
		Actor:     stakeholderAddr,
		Amount:    decimal.Zero,
		PrevHash:  "prev",
		Hash:      "hash",
		CreatedAt: testNow(),
	}
}

func addEventRow(rows *pgxmock.Rows, e *domain.LedgerEvent) *pgxmock.Rows {
	return rows.AddRow(
		e.ID, e.Sequence, e.Kind, e.Actor, e.ProposalID, e.Beneficiary,
		e.Amount.String(), e.Tier, e.Support, e.PrevHash, e.Hash, e.CreatedAt,
	)
}
