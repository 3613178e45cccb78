// Package classify implements the interest classifier and sentiment scorer on
// top of a local chat model, plus a caching decorator for both.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/giftwise/internal/ollama"
	"github.com/kalambet/giftwise/internal/profile"
)

// Chatter is the chat completion capability both classifiers need.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// ZeroShot ranks phrases against arbitrary label sets by prompting a chat model.
type ZeroShot struct {
	client  Chatter
	model   string
	timeout time.Duration
}

// NewZeroShot creates a ZeroShot classifier. A zero timeout leaves deadlines
// to the caller's context.
func NewZeroShot(client Chatter, model string, timeout time.Duration) *ZeroShot {
	return &ZeroShot{client: client, model: model, timeout: timeout}
}

type zeroShotResult struct {
	Scores []profile.Label `json:"scores"`
}

// Classify returns every label in labels ranked by score, best first. Labels
// the model skipped are appended with score 0; unknown labels and duplicates
// in the answer are dropped. Scores are normalised to sum to 1.
func (z *ZeroShot) Classify(ctx context.Context, phrase string, labels []string) ([]profile.Label, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no candidate labels", profile.ErrMalformedResult)
	}
	ctx, cancel := withTimeout(ctx, z.timeout)
	defer cancel()

	raw, err := z.client.Chat(ctx, z.model, BuildZeroShotPrompt(phrase, labels), zeroShotSchema(labels))
	if err != nil {
		return nil, fmt.Errorf("zero-shot chat: %w", err)
	}

	var result zeroShotResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", profile.ErrMalformedResult, err)
	}
	return rank(result.Scores, labels)
}

// rank reconciles a model answer with the candidate labels.
func rank(scores []profile.Label, labels []string) ([]profile.Label, error) {
	canonical := make(map[string]string, len(labels))
	for _, l := range labels {
		canonical[strings.ToLower(strings.TrimSpace(l))] = l
	}

	seen := make(map[string]bool, len(labels))
	ranked := make([]profile.Label, 0, len(labels))
	var total float64
	for _, s := range scores {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(s.Name))]
		if !ok || seen[name] || math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			continue
		}
		seen[name] = true
		ranked = append(ranked, profile.Label{Name: name, Score: s.Score})
		total += s.Score
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no usable scores", profile.ErrMalformedResult)
	}

	if total > 0 {
		for i := range ranked {
			ranked[i].Score /= total
		}
	}
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			ranked = append(ranked, profile.Label{Name: l, Score: 0})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

func zeroShotSchema(labels []string) *ollama.Schema {
	zero, one := 0.0, 1.0
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"scores": {
				Type:        "array",
				Description: "One entry per candidate category",
				Items: &ollama.SchemaProperty{
					Type: "object",
					Properties: map[string]ollama.SchemaProperty{
						"label": {Type: "string", Enum: labels},
						"score": {Type: "number", Minimum: &zero, Maximum: &one},
					},
					Required: []string{"label", "score"},
				},
			},
		},
		Required: []string{"scores"},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
