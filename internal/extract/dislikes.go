package extract

import (
	"strings"
	"unicode/utf8"
)

// aversionMarkers is ordered so that longer spellings are tried first at a
// given position ("hates" before "hate").
var aversionMarkers = []string{
	"does not like",
	"doesn't like",
	"do not like",
	"don't like",
	"dislikes",
	"dislike",
	"hates",
	"hate",
}

// dislikeTerminators end the object of an aversion marker.
var dislikeTerminators = []string{" and ", ",", ".", "!", "?", ";"}

// Dislikes returns the lower-cased objects of aversion expressions such as
// "hates X", "dislikes X", "doesn't like X" and "does not like X", in order
// of appearance. X runs up to the next " and ", comma, sentence terminator,
// or the end of the text. Duplicates are preserved.
func Dislikes(text string) []string {
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	dislikes := []string{}

	for i := 0; i < len(lower); {
		marker := aversionAt(lower, i)
		if marker == "" {
			_, size := utf8.DecodeRuneInString(lower[i:])
			i += size
			continue
		}
		start := i + len(marker)
		end := start + objectEnd(lower[start:])
		dislikes = append(dislikes, splitDislikeObject(lower[start:end])...)
		i = end
	}
	return dislikes
}

// aversionAt returns the marker that starts at byte offset i on word
// boundaries, or "".
func aversionAt(s string, i int) string {
	if !boundaryBefore(s, i) {
		return ""
	}
	for _, m := range aversionMarkers {
		if strings.HasPrefix(s[i:], m) && boundaryAfter(s, i+len(m)) {
			return m
		}
	}
	return ""
}

func objectEnd(s string) int {
	end := len(s)
	for _, t := range dislikeTerminators {
		if idx := strings.Index(s, t); idx >= 0 && idx < end {
			end = idx
		}
	}
	return end
}

func splitDislikeObject(object string) []string {
	object = stripAversionMarkers(strings.TrimSpace(object))
	var phrases []string
	for _, segment := range strings.Split(object, ",") {
		for _, p := range strings.Split(segment, " and ") {
			if p = strings.TrimSpace(p); p != "" {
				phrases = append(phrases, p)
			}
		}
	}
	return phrases
}

// stripAversionMarkers drops leftover leading markers, e.g. the second verb
// in "hates, really hates". Only whole leading markers are removed.
func stripAversionMarkers(s string) string {
	for {
		marker := aversionAt(s, 0)
		if marker == "" {
			return s
		}
		s = strings.TrimSpace(s[len(marker):])
	}
}
