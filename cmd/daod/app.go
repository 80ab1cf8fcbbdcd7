package main

import (
	"context"
	"fmt"

	"dao-governance/config"
	"dao-governance/internal/adapter/http/handler"
	"dao-governance/internal/adapter/metrics"
	"dao-governance/internal/adapter/storage/memory"
	pgStorage "dao-governance/internal/adapter/storage/postgres"
	redisStorage "dao-governance/internal/adapter/storage/redis"
	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// app is the wired service with the resources it must release.
type app struct {
	gov      *service.GovernanceServiceImpl
	tokens   *service.JWTTokenService
	router   *gin.Engine
	closers  []func()
	recorder *metrics.Recorder
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// policyFromConfig converts the governance section into a service policy.
func policyFromConfig(cfg config.GovernanceConfig) (service.Policy, error) {
	threshold, err := domain.ParseEther(cfg.StakeholderThreshold)
	if err != nil || !threshold.IsPositive() {
		return service.Policy{}, fmt.Errorf("governance.stakeholder_threshold %q must be a positive ether amount", cfg.StakeholderThreshold)
	}
	return service.Policy{
		StakeholderThreshold: threshold,
		VotingPeriod:         cfg.VotingPeriod,
		Quorum:               cfg.Quorum,
		ChainKey:             cfg.ChainKey,
	}, nil
}

// openStore connects the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Store, ports.HealthChecker, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		mem := memory.NewStore()
		log.Warn().Msg("using in-memory storage, ledger state is lost on exit")
		return mem.Repositories(), mem, func() {}, nil

	case config.StoragePostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return ports.Store{}, nil, nil, err
		}
		if cfg.Storage.Migrate {
			if err := pgStorage.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return ports.Store{}, nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return pgStorage.NewStore(pool), pgStorage.NewHealthCheck(pool), pool.Close, nil
	}
	return ports.Store{}, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// newApp wires storage, cache, services and the HTTP router, and initializes
// the ledger with the configured owner.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owner, err := domain.ParseAddress(cfg.Governance.Owner)
	if err != nil {
		return nil, fmt.Errorf("governance.owner: %w", err)
	}
	policy, err := policyFromConfig(cfg.Governance)
	if err != nil {
		return nil, err
	}

	a := &app{}

	store, storeHealth, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	healthCheckers := []ports.HealthChecker{storeHealth}

	deps := handler.RouterDeps{
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	}

	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		deps.RateLimitStore = redisStorage.NewRateLimitStore(rdb)
		deps.IdempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	a.recorder = metrics.NewRecorder()
	a.tokens = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	chain := service.NewEventChain(service.NewHMACSignatureService(), policy.ChainKey)
	a.gov = service.NewGovernanceService(store, chain, service.SystemClock{}, policy, a.recorder, log)

	state, err := a.gov.Initialize(ctx, owner)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize ledger: %w", err)
	}
	a.recorder.SetTreasuryBalance(state.TotalBalance)

	deps.GovernanceSvc = a.gov
	deps.TokenSvc = a.tokens
	deps.Metrics = a.recorder
	deps.HealthCheckers = healthCheckers
	a.router = handler.SetupRouter(deps)

	log.Info().
		Str("owner", owner.Checksum()).
		Str("storage", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Str("stakeholder_threshold_wei", policy.StakeholderThreshold.String()).
		Dur("voting_period", policy.VotingPeriod).
		Uint64("quorum", policy.Quorum).
		Msg("ledger ready")

	return a, nil
}
