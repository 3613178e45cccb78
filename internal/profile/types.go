// Package profile assembles a gift recipient profile from free text. The
// deterministic scans live in package extract; this package composes them
// and classifies interest phrases through injected capabilities.
package profile

import (
	"context"

	"github.com/kalambet/giftwise/internal/extract"
)

// Gender is the recipient gender inferred from keyword hits.
type Gender string

const (
	GenderMale    Gender = extract.GenderMale
	GenderFemale  Gender = extract.GenderFemale
	GenderUnknown Gender = extract.GenderUnknown
)

// Sentiment labels produced by a SentimentScorer.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

// Profile is the structured view of a recipient description. It is built
// once per request and never mutated afterwards.
type Profile struct {
	Age       *int       `json:"age"`
	Gender    Gender     `json:"gender"`
	Interests []Interest `json:"interests"`
	Dislikes  []string   `json:"dislikes"`
}

// Interest is one classified interest phrase.
type Interest struct {
	Phrase         string  `json:"phrase"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Label is one entry of a zero-shot ranking.
type Label struct {
	Name  string  `json:"label"`
	Score float64 `json:"score"`
}

// Sentiment is the polarity of a phrase with its confidence.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier ranks a phrase against candidate labels. Implementations return
// every label they could score, best first.
type Classifier interface {
	Classify(ctx context.Context, phrase string, labels []string) ([]Label, error)
}

// SentimentScorer reports the polarity of a phrase.
type SentimentScorer interface {
	Score(ctx context.Context, phrase string) (Sentiment, error)
}
