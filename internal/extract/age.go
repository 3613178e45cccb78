package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ages are valid strictly between these bounds.
const (
	minAge = 0
	maxAge = 120
)

type numberRun struct {
	value int
	end   int // byte offset just past the last digit
	// standalone is false when a word character follows the digits ("30years").
	standalone bool
}

// Age returns the recipient age mentioned in text.
//
// Two passes run in order:
//  1. the first 1–2 digit number followed by "years old", "year old",
//     "-year-old", "30years old" and similar spellings;
//  2. otherwise the first standalone 1–2 digit number anywhere.
//
// Within the winning pass the first candidate decides: if it falls outside
// (0, 120) the result is "no age" rather than a later candidate.
func Age(text string) (int, bool) {
	runs := numberRuns(text)
	for _, r := range runs {
		if followedByYearsOld(text[r.end:]) {
			return validAge(r.value)
		}
	}
	for _, r := range runs {
		if r.standalone {
			return validAge(r.value)
		}
	}
	return 0, false
}

func validAge(n int) (int, bool) {
	if n <= minAge || n >= maxAge {
		return 0, false
	}
	return n, true
}

// numberRuns returns every run of one or two ASCII digits that starts on a
// word boundary. Longer runs ("150", "2024") are skipped.
func numberRuns(text string) []numberRun {
	var runs []numberRun
	for i := 0; i < len(text); {
		if !isASCIIDigit(text[i]) {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		start := i
		for i < len(text) && isASCIIDigit(text[i]) {
			i++
		}
		if i-start > 2 || !boundaryBefore(text, start) {
			continue
		}
		n, err := strconv.Atoi(text[start:i])
		if err != nil {
			continue
		}
		runs = append(runs, numberRun{value: n, end: i, standalone: boundaryAfter(text, i)})
	}
	return runs
}

// followedByYearsOld matches `\s*-?\s*years?\s*-?\s*old\b` at the start of rest.
func followedByYearsOld(rest string) bool {
	rest = skipAgeSeparator(rest)
	if !hasPrefixFold(rest, "year") {
		return false
	}
	rest = rest[len("year"):]
	if hasPrefixFold(rest, "s") {
		rest = rest[1:]
	}
	rest = skipAgeSeparator(rest)
	if !hasPrefixFold(rest, "old") {
		return false
	}
	return boundaryAfter(rest, len("old"))
}

func skipAgeSeparator(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	s = strings.TrimPrefix(s, "-")
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
