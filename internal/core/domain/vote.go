package domain

import "time"

// Vote is the receipt of a single stakeholder vote. At most one exists per
// (ProposalID, Voter) and it is never deleted.
type Vote struct {
	ProposalID uint64    `json:"proposal_id"`
	Voter      Address   `json:"voter"`
	Support    bool      `json:"support"`
	CastAt     time.Time `json:"cast_at"`
}

// Tally is the up/down vote count of a proposal with its vote receipts,
// oldest first.
type Tally struct {
	ProposalID uint64 `json:"proposal_id"`
	UpVotes    uint64 `json:"up_votes"`
	DownVotes  uint64 `json:"down_votes"`
	Votes      []Vote `json:"votes"`
}
