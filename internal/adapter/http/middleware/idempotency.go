package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dao-governance/internal/core/ports"
	"dao-governance/pkg/apperror"
	"dao-governance/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
	inflightTTL          = 30 * time.Second
)

// cachedResponse is the stored form of a successful write response.
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyRecorder tees the response body so it can be cached after the handler.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response of a write that carries
// an Idempotency-Key header. Keys are scoped to the caller, method and path.
// A key whose first request is still running gets a 409. Cache failures
// degrade to processing the request normally.
func Idempotency(cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.Error(c, apperror.Validation("Idempotency-Key is too long"))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKey(c, key)

		cached, err := cache.Get(ctx, cacheKey)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency lookup failed, processing request (degraded mode)")
			c.Next()
			return
		}
		if cached != nil {
			var stored cachedResponse
			if err := json.Unmarshal(cached, &stored); err == nil {
				c.Header(HeaderReplayed, "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
			log.Warn().Str("key", cacheKey).Msg("discarding unreadable idempotency entry")
		}

		reserved, err := cache.Reserve(ctx, cacheKey, inflightTTL)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency reserve failed, processing request (degraded mode)")
			c.Next()
			return
		}
		if !reserved {
			response.Error(c, apperror.ErrIdempotencyInProgress())
			c.Abort()
			return
		}

		// The request context may be cancelled once the response is written.
		bg := context.WithoutCancel(ctx)
		defer func() {
			if err := cache.Release(bg, cacheKey); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to release idempotency key")
			}
		}()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices || !json.Valid(rec.body.Bytes()) {
			return
		}
		data, err := json.Marshal(cachedResponse{Status: status, Body: rec.body.Bytes()})
		if err != nil {
			return
		}
		if err := cache.Set(bg, cacheKey, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("failed to store idempotent response")
		}
	}
}

func idempotencyKey(c *gin.Context, key string) string {
	caller, _ := CallerFrom(c)
	return fmt.Sprintf("%s:%s:%s:%s", caller, c.Request.Method, c.Request.URL.Path, key)
}
