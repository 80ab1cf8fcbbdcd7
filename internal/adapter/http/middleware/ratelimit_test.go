package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dao-governance/internal/adapter/http/middleware"
	redisStore "dao-governance/internal/adapter/storage/redis"
	"dao-governance/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRateLimitStore(t *testing.T) (*redisStore.RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisStore.NewRateLimitStore(client), mr
}

// setupRateLimitRouter stands in for JWTAuth with an X-Test-Caller header.
func setupRateLimitRouter(store *redisStore.RateLimitStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rule := middleware.RateLimitRule{Limit: 3, Window: time.Minute}
	fakeAuth := func(c *gin.Context) {
		if h := c.GetHeader("X-Test-Caller"); h != "" {
			c.Set(middleware.CtxCaller, domain.MustParseAddress(h))
		}
	}

	r.POST("/test", fakeAuth, middleware.RateLimiter(store, middleware.GroupVotes, rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func send(router *gin.Engine, caller string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	if caller != "" {
		req.Header.Set("X-Test-Caller", caller)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store)

	for i := 0; i < 3; i++ {
		w := send(router, "")
		assert.Equal(t, 200, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, send(router, "").Code)
	}

	w := send(router, "")
	assert.Equal(t, 429, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_CountsPerCaller(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store)

	callerA := "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
	callerB := "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, send(router, callerA).Code)
	}
	assert.Equal(t, 429, send(router, callerA).Code)

	assert.Equal(t, 200, send(router, callerB).Code, "independent counter per caller")
}

func TestRateLimiter_DegradesWhenRedisDown(t *testing.T) {
	store, mr := newRateLimitStore(t)
	router := setupRateLimitRouter(store)
	mr.Close()

	for i := 0; i < 2; i++ {
		w := send(router, "")
		assert.Equal(t, 200, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestDefaultRateLimitRules(t *testing.T) {
	rules := middleware.DefaultRateLimitRules()
	assert.Equal(t, int64(30), rules[middleware.GroupContributions].Limit)
	assert.Equal(t, int64(10), rules[middleware.GroupProposals].Limit)
	assert.Equal(t, int64(30), rules[middleware.GroupVotes].Limit)
	assert.Equal(t, int64(10), rules[middleware.GroupPayout].Limit)
	assert.Equal(t, int64(120), rules[middleware.GroupReads].Limit)
	for group, rule := range rules {
		assert.Equal(t, time.Minute, rule.Window, group)
	}
}
