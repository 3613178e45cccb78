package classify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kalambet/giftwise/internal/profile"
	"github.com/kalambet/giftwise/internal/storage"
)

// CacheStore persists classifier answers. Lookups return storage.ErrNotFound
// on a miss.
type CacheStore interface {
	GetClassification(ctx context.Context, phrase string, labels []string) ([]profile.Label, error)
	SaveClassification(ctx context.Context, phrase string, labels []string, ranking []profile.Label) error
	GetSentiment(ctx context.Context, phrase string) (profile.Sentiment, error)
	SaveSentiment(ctx context.Context, phrase string, s profile.Sentiment) error
}

// Cache wraps a classifier and a sentiment scorer with a persistent store.
// Store failures are logged and never fail the call; only answers from the
// wrapped capabilities are cached, never their errors.
type Cache struct {
	classifier profile.Classifier
	sentiment  profile.SentimentScorer
	store      CacheStore
}

// NewCache creates a caching decorator around c and s.
func NewCache(c profile.Classifier, s profile.SentimentScorer, store CacheStore) *Cache {
	return &Cache{classifier: c, sentiment: s, store: store}
}

// Classify implements profile.Classifier.
func (c *Cache) Classify(ctx context.Context, phrase string, labels []string) ([]profile.Label, error) {
	cached, err := c.store.GetClassification(ctx, phrase, labels)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("classification cache read failed", "phrase", phrase, "error", err)
	}

	ranking, err := c.classifier.Classify(ctx, phrase, labels)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveClassification(ctx, phrase, labels, ranking); err != nil {
		slog.Warn("classification cache write failed", "phrase", phrase, "error", err)
	}
	return ranking, nil
}

// Score implements profile.SentimentScorer.
func (c *Cache) Score(ctx context.Context, phrase string) (profile.Sentiment, error) {
	cached, err := c.store.GetSentiment(ctx, phrase)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("sentiment cache read failed", "phrase", phrase, "error", err)
	}

	s, err := c.sentiment.Score(ctx, phrase)
	if err != nil {
		return profile.Sentiment{}, err
	}
	if err := c.store.SaveSentiment(ctx, phrase, s); err != nil {
		slog.Warn("sentiment cache write failed", "phrase", phrase, "error", err)
	}
	return s, nil
}
