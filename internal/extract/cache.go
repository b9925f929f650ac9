package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rahul/outing/internal/observability"
)

// Cache stores serialised extraction answers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached serves repeated requests from a Cache. Failed extractions are
// never stored, and cache errors only cost a live call.
type Cached struct {
	next  Extractor
	cache Cache
	TTL   time.Duration
	log   observability.Logger
}

func WithCache(next Extractor, cache Cache, ttl time.Duration, log observability.Logger) *Cached {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Cached{next: next, cache: cache, TTL: ttl, log: log.Event(observability.EventExtraction)}
}

func (c *Cached) Name() string {
	return c.next.Name()
}

func (c *Cached) Extract(ctx context.Context, req Request) (map[string]any, error) {
	key := CacheKey(c.next.Name(), req)
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).Warn("cache lookup failed", observability.Fields{"url": req.URL})
	}
	if ok {
		var answer map[string]any
		if err := json.Unmarshal(data, &answer); err == nil {
			c.log.Debug("cache hit", observability.Fields{"url": req.URL})
			return answer, nil
		}
	}

	answer, err := c.next.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(answer); err == nil {
		if err := c.cache.Set(ctx, key, data, c.TTL); err != nil {
			c.log.WithError(err).Warn("cache store failed", observability.Fields{"url": req.URL})
		}
	}
	return answer, nil
}

// CacheKey identifies a request by backend, URL, prompt, schema and region.
func CacheKey(backend string, req Request) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode([]any{req.URL, req.Prompt, req.Schema, req.Region})
	return "outing:extract:" + backend + ":" + hex.EncodeToString(h.Sum(nil))
}
