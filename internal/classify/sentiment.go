package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kalambet/giftwise/internal/ollama"
	"github.com/kalambet/giftwise/internal/profile"
)

// Sentiment scores phrase polarity by prompting a chat model.
type Sentiment struct {
	client  Chatter
	model   string
	timeout time.Duration
}

// NewSentiment creates a Sentiment scorer.
func NewSentiment(client Chatter, model string, timeout time.Duration) *Sentiment {
	return &Sentiment{client: client, model: model, timeout: timeout}
}

// Score returns POSITIVE or NEGATIVE with a confidence in [0, 1].
func (s *Sentiment) Score(ctx context.Context, phrase string) (profile.Sentiment, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Chat(ctx, s.model, BuildSentimentPrompt(phrase), sentimentSchema())
	if err != nil {
		return profile.Sentiment{}, fmt.Errorf("sentiment chat: %w", err)
	}

	var result profile.Sentiment
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return profile.Sentiment{}, fmt.Errorf("%w: %v", profile.ErrMalformedResult, err)
	}

	result.Label = strings.ToUpper(strings.TrimSpace(result.Label))
	if result.Label != profile.SentimentPositive && result.Label != profile.SentimentNegative {
		return profile.Sentiment{}, fmt.Errorf("%w: sentiment label %q", profile.ErrMalformedResult, result.Label)
	}
	if math.IsNaN(result.Score) || result.Score < 0 || result.Score > 1 {
		return profile.Sentiment{}, fmt.Errorf("%w: sentiment score %v", profile.ErrMalformedResult, result.Score)
	}
	return result, nil
}

func sentimentSchema() *ollama.Schema {
	zero, one := 0.0, 1.0
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"label": {Type: "string", Enum: []string{profile.SentimentPositive, profile.SentimentNegative}},
			"score": {Type: "number", Description: "Confidence in the label", Minimum: &zero, Maximum: &one},
		},
		Required: []string{"label", "score"},
	}
}
