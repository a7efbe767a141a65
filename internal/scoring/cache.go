package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"credex/internal/application"
)

// CachedScorer decorates a Scorer with a Redis read-through cache keyed by a
// digest of the application attributes. Identical applications score
// identically within the TTL, which also keeps what-if baselines cheap.
// Cache failures degrade to the inner scorer; Redis being down must never
// make scores unavailable.
type CachedScorer struct {
	inner  Scorer
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedScorer(inner Scorer, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedScorer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedScorer{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedScorer) Score(ctx context.Context, app application.Application) (*Result, error) {
	key, err := cacheKey(app)
	if err != nil {
		return s.inner.Score(ctx, app)
	}

	if cached, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var result Result
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	} else if err != redis.Nil && s.logger != nil {
		s.logger.DebugContext(ctx, "score cache read failed", "error", err)
	}

	result, err := s.inner.Score(ctx, app)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil && s.logger != nil {
			s.logger.DebugContext(ctx, "score cache write failed", "error", err)
		}
	}

	return result, nil
}

// cacheKey digests the attributes in sorted order so logically equal
// applications share a cache entry.
func cacheKey(app application.Application) (string, error) {
	h := sha256.New()
	for _, name := range app.AttributeNames() {
		value, _ := app.Get(name)
		if _, err := fmt.Fprintf(h, "%s=%s;", name, value.String()); err != nil {
			return "", err
		}
	}
	return "credex:score:" + hex.EncodeToString(h.Sum(nil)), nil
}
