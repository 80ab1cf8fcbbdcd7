package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	httpHandler "dao-governance/internal/adapter/http/handler"
	"dao-governance/internal/adapter/metrics"
	"dao-governance/internal/adapter/storage/memory"
	redisStorage "dao-governance/internal/adapter/storage/redis"
	"dao-governance/internal/core/domain"
	"dao-governance/internal/core/ports"
	"dao-governance/internal/service"
	"dao-governance/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	aliceAddr = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bobAddr   = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	carolAddr = domain.MustParseAddress("0x90f79bf6eb2c4f870365e785982e1f101e93b906")
	daveAddr  = domain.MustParseAddress("0x15d34aaf54267db7d7c367839aaf71a00a2c6a65")
)

// manualClock is advanced explicitly by tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testApp is the full HTTP stack over the memory store, with Redis-backed
// rate limiting and idempotency on miniredis.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	clock  *manualClock
	gov    *service.GovernanceServiceImpl
	tokens *service.JWTTokenService
	policy service.Policy
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &manualClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	policy := service.DefaultPolicy()
	policy.ChainKey = "integration-chain-key"

	log := logger.New("error", false)
	store := memory.NewStore()
	recorder := metrics.NewRecorder()
	chain := service.NewEventChain(service.NewHMACSignatureService(), policy.ChainKey)
	gov := service.NewGovernanceService(store.Repositories(), chain, clock, policy, recorder, log)
	_, err := gov.Initialize(t.Context(), ownerAddr)
	require.NoError(t, err)

	tokens := service.NewJWTTokenService("integration-jwt-secret", time.Hour, "dao-governance")

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		GovernanceSvc:    gov,
		TokenSvc:         tokens,
		IdempotencyCache: redisStorage.NewIdempotencyCache(rdb),
		IdempotencyTTL:   time.Hour,
		Metrics:          recorder,
		HealthCheckers:   []ports.HealthChecker{store, redisStorage.NewHealthCheck(rdb)},
		MaxBodyBytes:     64 * 1024,
		Logger:           log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{
		server: server,
		redis:  mr,
		clock:  clock,
		gov:    gov,
		tokens: tokens,
		policy: policy,
	}
}

func (a *testApp) token(t *testing.T, caller domain.Address) string {
	t.Helper()
	tok, _, err := a.tokens.Generate(caller)
	require.NoError(t, err)
	return tok
}

// apiResult is a decoded response envelope.
type apiResult struct {
	Status    int
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Header    http.Header
}

// do sends a JSON request as caller (unauthenticated when caller is empty).
func (a *testApp) do(t *testing.T, method, path string, caller domain.Address, body interface{}, headers ...string) apiResult {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, caller))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := apiResult{Status: resp.StatusCode, Header: resp.Header}
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	}
	return res
}

func (r apiResult) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), string(r.Data))
}

func proposalPath(id uint64, suffix string) string {
	return fmt.Sprintf("/api/v1/proposals/%d%s", id, suffix)
}
