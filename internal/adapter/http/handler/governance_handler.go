package handler

import (
	"strconv"

	"dao-governance/internal/adapter/http/dto"
	"dao-governance/internal/adapter/http/middleware"
	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/pkg/apperror"
	"dao-governance/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GovernanceHandler serves the treasury, membership, proposal, voting and
// event log endpoints.
type GovernanceHandler struct {
	svc ports.GovernanceService
}

// NewGovernanceHandler creates a new GovernanceHandler.
func NewGovernanceHandler(svc ports.GovernanceService) *GovernanceHandler {
	return &GovernanceHandler{svc: svc}
}

// Contribute handles POST /api/v1/contributions.
func (h *GovernanceHandler) Contribute(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	value, err := domain.ParseWei(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a non-negative integer of wei"))
		return
	}

	member, err := h.svc.Contribute(c.Request.Context(), caller, value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewMemberResponse(member))
}

// MyBalances handles GET /api/v1/members/me/balances.
func (h *GovernanceHandler) MyBalances(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	ctx := c.Request.Context()
	stakeholder, err := h.svc.StakeholderBalance(ctx, caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	contributor, err := h.svc.ContributorBalance(ctx, caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBalancesResponse(caller, stakeholder, contributor))
}

// MyStatus handles GET /api/v1/members/me/status.
func (h *GovernanceHandler) MyStatus(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	h.writeStatus(c, caller)
}

// MemberStatus handles GET /api/v1/members/:address/status.
func (h *GovernanceHandler) MemberStatus(c *gin.Context) {
	addr, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid address"))
		return
	}
	h.writeStatus(c, addr)
}

func (h *GovernanceHandler) writeStatus(c *gin.Context, addr domain.Address) {
	ctx := c.Request.Context()
	stakeholder, err := h.svc.IsStakeholder(ctx, addr)
	if err != nil {
		response.Error(c, err)
		return
	}
	contributor, err := h.svc.IsContributor(ctx, addr)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.StatusResponse{
		Address:       addr.Checksum(),
		IsStakeholder: stakeholder,
		IsContributor: contributor,
	})
}

// TreasuryBalance handles GET /api/v1/treasury/balance. Owner only.
func (h *GovernanceHandler) TreasuryBalance(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	total, err := h.svc.TotalBalance(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TreasuryResponse{TotalBalance: total.String()})
}

// Deployer handles GET /api/v1/deployer.
func (h *GovernanceHandler) Deployer(c *gin.Context) {
	owner, err := h.svc.Deployer(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DeployerResponse{Deployer: owner.Checksum()})
}

// CreateProposal handles POST /api/v1/proposals.
func (h *GovernanceHandler) CreateProposal(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	beneficiary, err := domain.ParseAddress(req.Beneficiary)
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary address"))
		return
	}
	amount, err := domain.ParseWei(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a non-negative integer of wei"))
		return
	}

	proposal, err := h.svc.CreateProposal(c.Request.Context(), ports.CreateProposalRequest{
		Caller:      caller,
		Title:       req.Title,
		Description: req.Description,
		Beneficiary: beneficiary,
		Amount:      amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewProposalResponse(proposal, h.svc.ProposalStatus(proposal)))
}

// GetProposal handles GET /api/v1/proposals/:id.
func (h *GovernanceHandler) GetProposal(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}

	proposal, err := h.svc.GetProposal(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProposalResponse(proposal, h.svc.ProposalStatus(proposal)))
}

// ListProposals handles GET /api/v1/proposals.
func (h *GovernanceHandler) ListProposals(c *gin.Context) {
	proposals, err := h.svc.ListProposals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		items = append(items, dto.NewProposalResponse(&proposals[i], h.svc.ProposalStatus(&proposals[i])))
	}
	response.OK(c, items)
}

// CastVote handles POST /api/v1/proposals/:id/votes.
func (h *GovernanceHandler) CastVote(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, ok := proposalID(c)
	if !ok {
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	vote, err := h.svc.PerformVote(c.Request.Context(), caller, id, *req.Support)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewVoteResponse(vote))
}

// GetVotes handles GET /api/v1/proposals/:id/votes.
func (h *GovernanceHandler) GetVotes(c *gin.Context) {
	id, ok := proposalID(c)
	if !ok {
		return
	}

	tally, err := h.svc.GetProposalVote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTallyResponse(tally))
}

// Payout handles POST /api/v1/proposals/:id/payout. Owner only.
func (h *GovernanceHandler) Payout(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, ok := proposalID(c)
	if !ok {
		return
	}

	proposal, err := h.svc.PayBeneficiary(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProposalResponse(proposal, h.svc.ProposalStatus(proposal)))
}

// ListEvents handles GET /api/v1/events.
func (h *GovernanceHandler) ListEvents(c *gin.Context) {
	var q dto.EventListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > maxPageSize {
		q.PageSize = defaultPageSize
	}

	params := ports.EventListParams{
		ProposalID: q.ProposalID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	if q.Kind != "" {
		kind := domain.EventKind(q.Kind)
		params.Kind = &kind
	}

	events, total, err := h.svc.ListEvents(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, dto.NewEventResponse(&events[i]))
	}
	response.Paginated(c, items, total, q.Page, q.PageSize)
}

// proposalID parses the :id path parameter, writing the error response
// itself on failure.
func proposalID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("invalid proposal id"))
		return 0, false
	}
	return id, true
}
