package profile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/giftwise/internal/extract"
)

// Builder turns recipient descriptions into Profiles. It is safe for
// concurrent use provided the injected capabilities are.
type Builder struct {
	classifier  Classifier
	sentiment   SentimentScorer
	categories  []string
	concurrency int
}

// Option configures a Builder.
type Option func(*Builder)

// WithConcurrency bounds how many interest phrases are classified at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.concurrency = n
	}
}

// NewBuilder creates a Builder that classifies interests against categories.
func NewBuilder(c Classifier, s SentimentScorer, categories []string, opts ...Option) *Builder {
	b := &Builder{
		classifier:  c,
		sentiment:   s,
		categories:  append([]string(nil), categories...),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Categories returns a copy of the interest taxonomy.
func (b *Builder) Categories() []string {
	return append([]string(nil), b.categories...)
}

// Build extracts age, gender, interests and dislikes from text. Only the
// interest step consults the injected capabilities; an empty text makes no
// calls at all.
func (b *Builder) Build(ctx context.Context, text string) (Profile, error) {
	interests, err := b.ExtractInterests(ctx, text, b.categories)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		Gender:    Gender(extract.Gender(text)),
		Interests: interests,
		Dislikes:  dedupe(extract.Dislikes(text)),
	}
	if age, ok := extract.Age(text); ok {
		p.Age = &age
	}
	return p, nil
}

// ExtractInterests segments text into interest phrases and classifies each
// one against categories. The result preserves segmentation order
// regardless of how many phrases are classified in parallel.
func (b *Builder) ExtractInterests(ctx context.Context, text string, categories []string) ([]Interest, error) {
	phrases := extract.InterestCandidates(text)
	interests := make([]Interest, len(phrases))
	if len(phrases) == 0 {
		return interests, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, phrase := range phrases {
		g.Go(func() error {
			in, err := b.classifyInterest(gCtx, phrase, categories)
			if err != nil {
				return err
			}
			interests[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return interests, nil
}

// Classify classifies a single phrase against the builder's categories as
// if it had been found as an interest.
func (b *Builder) Classify(ctx context.Context, phrase string) (Interest, error) {
	return b.classifyInterest(ctx, phrase, b.categories)
}

func (b *Builder) classifyInterest(ctx context.Context, phrase string, categories []string) (Interest, error) {
	top, err := b.topLabel(ctx, phrase, categories)
	if err != nil {
		return Interest{}, err
	}

	s, err := b.sentiment.Score(ctx, phrase)
	if err != nil {
		return Interest{}, &ClassifierError{Op: "sentiment", Phrase: phrase, Err: err}
	}
	if s.Label == "" || !validScore(s.Score) {
		return Interest{}, &ClassifierError{
			Op:     "sentiment",
			Phrase: phrase,
			Err:    fmt.Errorf("%w: label %q score %v", ErrMalformedResult, s.Label, s.Score),
		}
	}

	return Interest{
		Phrase:         phrase,
		Category:       top.Name,
		Confidence:     top.Score,
		Sentiment:      s.Label,
		SentimentScore: s.Score,
	}, nil
}

func (b *Builder) topLabel(ctx context.Context, phrase string, categories []string) (Label, error) {
	labels, err := b.classifier.Classify(ctx, phrase, categories)
	if err != nil {
		return Label{}, &ClassifierError{Op: "classify", Phrase: phrase, Err: err}
	}
	if len(labels) == 0 {
		return Label{}, &ClassifierError{
			Op:     "classify",
			Phrase: phrase,
			Err:    fmt.Errorf("%w: empty ranking", ErrMalformedResult),
		}
	}
	top := labels[0]
	if top.Name == "" || !validScore(top.Score) {
		return Label{}, &ClassifierError{
			Op:     "classify",
			Phrase: phrase,
			Err:    fmt.Errorf("%w: label %q score %v", ErrMalformedResult, top.Name, top.Score),
		}
	}
	return top, nil
}

func validScore(f float64) bool {
	return f >= 0 && f <= 1
}

// dedupe keeps the first occurrence of each string. The result is never nil.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
