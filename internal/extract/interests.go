package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var desireVerbs = wordSet("love", "loves", "like", "likes", "enjoy", "enjoys")

// isDesireVerb ignores punctuation glued to the token ("Loves:", "enjoys,").
func isDesireVerb(token string) bool {
	return desireVerbs[strings.ToLower(strings.TrimFunc(token, unicode.IsPunct))]
}

// InterestCandidates segments text into interest phrases.
//
// Each desire verb (love, like, enjoy and their -s forms) opens a run that
// extends up to, but not including, the next desire verb or the end of the
// text. A run is re-joined with single spaces and split on commas and the
// standalone word "and". Candidates keep their original casing, are trimmed,
// lose trailing sentence punctuation (".", "!", "?", ";"), and are
// deduplicated by exact phrase in first-seen order.
func InterestCandidates(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]bool)
	candidates := []string{}

	for i := 0; i < len(tokens); {
		if !isDesireVerb(tokens[i]) {
			i++
			continue
		}
		end := i + 1
		for end < len(tokens) && !isDesireVerb(tokens[end]) {
			end++
		}
		for _, c := range splitInterestRun(strings.Join(tokens[i+1:end], " ")) {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			candidates = append(candidates, c)
		}
		// The verb that closed this run opens the next one.
		i = end
	}
	return candidates
}

func splitInterestRun(run string) []string {
	var parts []string
	for _, segment := range strings.Split(run, ",") {
		for _, p := range splitOnWord(segment, "and") {
			parts = append(parts, strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), ".!?;")))
		}
	}
	return parts
}

// splitOnWord splits s around case-insensitive occurrences of word that sit
// on word boundaries, so "band" and "android" are left intact.
func splitOnWord(s, word string) []string {
	var parts []string
	start := 0
	for i := 0; i+len(word) <= len(s); {
		if strings.EqualFold(s[i:i+len(word)], word) && boundaryBefore(s, i) && boundaryAfter(s, i+len(word)) {
			parts = append(parts, s[start:i])
			i += len(word)
			start = i
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return append(parts, s[start:])
}
