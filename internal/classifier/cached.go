package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/spacesedan/sentai/internal/models"
)

type ScoreCache interface {
	GetScores(ctx context.Context, key string) (models.ScoreVector, bool, error)
	SetScores(ctx context.Context, key string, scores models.ScoreVector, ttl time.Duration) error
}

// CachedClassifier memoizes score vectors by model and normalized text.
// Cache failures are logged and fall through to the wrapped classifier.
type CachedClassifier struct {
	inner Classifier
	cache ScoreCache
	model string
	ttl   time.Duration
}

func NewCachedClassifier(inner Classifier, cache ScoreCache, model string, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{inner: inner, cache: cache, model: model, ttl: ttl}
}

func (c *CachedClassifier) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentai:scores:" + c.model + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (models.ScoreVector, error) {
	key := c.Key(text)

	scores, ok, err := c.cache.GetScores(ctx, key)
	if err != nil {
		slog.Warn("[CachedClassifier] Cache lookup failed", slog.String("error", err.Error()))
	}
	if ok {
		return scores, nil
	}

	scores, err = c.inner.Classify(ctx, text)
	if err != nil {
		return scores, err
	}

	if err := c.cache.SetScores(ctx, key, scores, c.ttl); err != nil {
		slog.Warn("[CachedClassifier] Cache store failed", slog.String("error", err.Error()))
	}
	return scores, nil
}
