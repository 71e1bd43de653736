package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/busymap/pkg/logger"
	"github.com/richxcame/busymap/pkg/redis"
	"go.uber.org/zap"
)

// Cache TTLs: autocomplete queries churn constantly so they expire
// quickly, full resolves are stable addresses and can live longer.
const (
	autocompleteTTL = 1 * time.Hour
	resolveTTL      = 24 * time.Hour
)

// CachedProvider decorates a Provider with a Redis read-through cache.
// Redis being down or absent never fails a lookup, it just skips the
// cache.
type CachedProvider struct {
	inner Provider
	redis redis.ClientInterface
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps a provider with Redis caching
func NewCachedProvider(inner Provider, client redis.ClientInterface) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		redis: client,
	}
}

// Forward serves from cache when possible, otherwise delegates and
// stores the result.
func (p *CachedProvider) Forward(ctx context.Context, query string, limit int, autocomplete bool) ([]Feature, error) {
	key := cacheKey(query, limit, autocomplete)

	if cached, err := p.redis.GetString(ctx, key); err == nil {
		var features []Feature
		if err := json.Unmarshal([]byte(cached), &features); err == nil {
			return features, nil
		}
	} else if !redis.IsNil(err) {
		logger.DebugContext(ctx, "geocode cache read failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	features, err := p.inner.Forward(ctx, query, limit, autocomplete)
	if err != nil {
		return nil, err
	}

	ttl := resolveTTL
	if autocomplete {
		ttl = autocompleteTTL
	}

	if payload, err := json.Marshal(features); err == nil {
		if err := p.redis.SetWithExpiration(ctx, key, payload, ttl); err != nil {
			logger.DebugContext(ctx, "geocode cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return features, nil
}

func cacheKey(query string, limit int, autocomplete bool) string {
	return fmt.Sprintf("geocode:fwd:%d:%t:%s", limit, autocomplete, strings.ToLower(strings.TrimSpace(query)))
}
