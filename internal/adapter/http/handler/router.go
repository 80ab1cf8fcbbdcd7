package handler

import (
	"time"

	"dao-governance/internal/adapter/http/middleware"
	"dao-governance/internal/adapter/metrics"
	redisStore "dao-governance/internal/adapter/storage/redis"
	"dao-governance/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	GovernanceSvc    ports.GovernanceService
	TokenSvc         ports.TokenService
	RateLimitStore   *redisStore.RateLimitStore // nil = rate limiting disabled
	IdempotencyCache ports.IdempotencyCache     // nil = Idempotency-Key ignored
	IdempotencyTTL   time.Duration
	Metrics          *metrics.Recorder // nil = no /metrics
	HealthCheckers   []ports.HealthChecker
	MaxBodyBytes     int64
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	noop := func(c *gin.Context) { c.Next() }
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return noop
		}
		rule, ok := rules[group]
		if !ok {
			return noop
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	idem := noop
	if deps.IdempotencyCache != nil {
		idem = middleware.Idempotency(deps.IdempotencyCache, deps.IdempotencyTTL, deps.Logger)
	}

	gov := NewGovernanceHandler(deps.GovernanceSvc)
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	reads := rl(middleware.GroupReads)

	v1 := r.Group("/api/v1")

	// --- Public reads ---
	v1.GET("/deployer", reads, gov.Deployer)
	v1.GET("/members/:address/status", reads, gov.MemberStatus)
	v1.GET("/proposals", reads, gov.ListProposals)
	v1.GET("/proposals/:id", reads, gov.GetProposal)
	v1.GET("/proposals/:id/votes", reads, gov.GetVotes)
	v1.GET("/events", reads, gov.ListEvents)

	// --- Authenticated routes (caller from JWT) ---
	authed := v1.Group("", jwtAuth)
	{
		authed.POST("/contributions", rl(middleware.GroupContributions), idem, gov.Contribute)
		authed.GET("/members/me/balances", reads, gov.MyBalances)
		authed.GET("/members/me/status", reads, gov.MyStatus)
		authed.GET("/treasury/balance", reads, gov.TreasuryBalance)
		authed.POST("/proposals", rl(middleware.GroupProposals), idem, gov.CreateProposal)
		authed.POST("/proposals/:id/votes", rl(middleware.GroupVotes), idem, gov.CastVote)
		authed.POST("/proposals/:id/payout", rl(middleware.GroupPayout), idem, gov.Payout)
	}

	return r
}
