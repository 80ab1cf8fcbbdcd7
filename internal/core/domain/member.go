package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is the membership class a single deposit is credited to.
type Tier string

const (
	TierStakeholder Tier = "STAKEHOLDER"
	TierContributor Tier = "CONTRIBUTOR"
)

// ClassifyDeposit returns the tier a deposit of value is credited to.
// A deposit at or above threshold is a stakeholder deposit.
func ClassifyDeposit(value, threshold decimal.Decimal) Tier {
	if value.GreaterThanOrEqual(threshold) {
		return TierStakeholder
	}
	return TierContributor
}

// Member holds the two independent contribution counters of an address.
// Tier membership is derived from these counters and never stored.
type Member struct {
	Address            Address         `json:"address"`
	StakeholderBalance decimal.Decimal `json:"stakeholder_balance"`
	ContributorBalance decimal.Decimal `json:"contributor_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewMember returns an empty member record for addr.
func NewMember(addr Address, now time.Time) *Member {
	return &Member{
		Address:            addr,
		StakeholderBalance: decimal.Zero,
		ContributorBalance: decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsStakeholder returns true if the address ever made a stakeholder-sized deposit.
func (m *Member) IsStakeholder() bool {
	return m != nil && m.StakeholderBalance.IsPositive()
}

// IsContributor returns true if the address ever made a sub-threshold deposit.
func (m *Member) IsContributor() bool {
	return m != nil && m.ContributorBalance.IsPositive()
}

// Credit adds value to the counter selected by tier.
func (m *Member) Credit(tier Tier, value decimal.Decimal, now time.Time) {
	switch tier {
	case TierStakeholder:
		m.StakeholderBalance = m.StakeholderBalance.Add(value)
	default:
		m.ContributorBalance = m.ContributorBalance.Add(value)
	}
	m.UpdatedAt = now
}
