// Package pipeline runs a recipient description through profile extraction
// and the gift rule table.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/giftwise/internal/gifts"
	"github.com/kalambet/giftwise/internal/profile"
)

// ErrEmptyText is returned when the description is empty or whitespace only.
var ErrEmptyText = errors.New("text is empty")

// Options tunes a single Recommend call.
type Options struct {
	// AssumeInterest treats the whole text as the interest when no desire
	// phrase was found, so that "board games" on its own still yields gifts.
	AssumeInterest bool
}

// Result is the outcome of one recommendation request.
type Result struct {
	ID              string                 `json:"id"`
	Profile         profile.Profile        `json:"profile"`
	Recommendations []gifts.Recommendation `json:"recommendations"`
	AssumedInterest bool                   `json:"assumed_interest"`
}

// Metadata captures diagnostic information about a request.
type Metadata struct {
	InterestsFound int
	DurationMs     int64
}

// ProfileBuilder is the part of profile.Builder the pipeline needs.
type ProfileBuilder interface {
	Build(ctx context.Context, text string) (profile.Profile, error)
	Classify(ctx context.Context, phrase string) (profile.Interest, error)
}

// Recommender ties a profile builder to a gift table.
type Recommender struct {
	builder ProfileBuilder
	table   *gifts.Table
}

// NewRecommender creates a Recommender. The builder should classify against
// table's categories.
func NewRecommender(b ProfileBuilder, table *gifts.Table) *Recommender {
	return &Recommender{builder: b, table: table}
}

// Table returns the gift table recommendations are drawn from.
func (r *Recommender) Table() *gifts.Table {
	return r.table
}

// Profile extracts a profile without computing recommendations.
func (r *Recommender) Profile(ctx context.Context, text string) (profile.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return profile.Profile{}, ErrEmptyText
	}
	return r.builder.Build(ctx, text)
}

// Recommend builds a profile from text and maps its interests to gifts.
func (r *Recommender) Recommend(ctx context.Context, text string, opts Options) (res Result, meta Metadata, err error) {
	start := time.Now()
	defer func() {
		meta.DurationMs = time.Since(start).Milliseconds()
	}()

	p, err := r.Profile(ctx, text)
	if err != nil {
		return Result{}, meta, err
	}
	meta.InterestsFound = len(p.Interests)

	res.ID = uuid.NewString()
	if opts.AssumeInterest && len(p.Interests) == 0 {
		assumed, err := r.assumedInterest(ctx, strings.TrimSpace(text))
		if err != nil {
			return Result{}, meta, err
		}
		p.Interests = []profile.Interest{assumed}
		res.AssumedInterest = true
		slog.Debug("no interests found, assuming text is the interest",
			"phrase", assumed.Phrase, "category", assumed.Category)
	}

	res.Profile = p
	res.Recommendations = gifts.Recommend(p, r.table)
	return res, meta, nil
}

// assumedInterest uses the text verbatim when it names a table category and
// asks the classifier otherwise.
func (r *Recommender) assumedInterest(ctx context.Context, text string) (profile.Interest, error) {
	if category := strings.ToLower(text); r.table.HasCategory(category) {
		return profile.Interest{
			Phrase:         text,
			Category:       category,
			Confidence:     1,
			Sentiment:      profile.SentimentPositive,
			SentimentScore: 1,
		}, nil
	}
	return r.builder.Classify(ctx, text)
}
