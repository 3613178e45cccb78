package classify

import (
	"fmt"
	"strings"

	"github.com/kalambet/giftwise/internal/ollama"
)

const zeroShotSystemPrompt = `You are a zero-shot text classifier. You receive a short phrase describing something a person likes and a fixed list of candidate categories. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- Score every candidate category exactly once, using the category names verbatim.
- Scores are probabilities between 0 and 1 and should sum to 1.
- Prefer the category a gift shop would file the phrase under.`

const sentimentSystemPrompt = `You are a sentiment classifier. Decide whether the phrase expresses a POSITIVE or NEGATIVE attitude. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- label is either "POSITIVE" or "NEGATIVE".
- score is your confidence in the label, between 0 and 1.
- Neutral nouns such as hobbies or objects are POSITIVE.`

// BuildZeroShotPrompt constructs the chat messages that rank phrase against labels.
func BuildZeroShotPrompt(phrase string, labels []string) []ollama.Message {
	var sb strings.Builder
	sb.WriteString("Candidate categories:\n")
	for _, l := range labels {
		fmt.Fprintf(&sb, "- %s\n", l)
	}
	fmt.Fprintf(&sb, "\nPhrase: %s", phrase)

	return []ollama.Message{
		{Role: "system", Content: zeroShotSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
}

// BuildSentimentPrompt constructs the chat messages that score phrase polarity.
func BuildSentimentPrompt(phrase string) []ollama.Message {
	return []ollama.Message{
		{Role: "system", Content: sentimentSystemPrompt},
		{Role: "user", Content: "Phrase: " + phrase},
	}
}
