package extract

import "strings"

// Values returned by Gender.
const (
	GenderFemale  = "female"
	GenderMale    = "male"
	GenderUnknown = "unknown"
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// genderIndicators is checked in declaration order: female keywords win
// over male keywords when a text contains both.
var genderIndicators = []struct {
	gender string
	words  map[string]bool
}{
	{
		gender: GenderFemale,
		words: wordSet(
			"she", "her", "hers", "herself",
			"sister", "girlfriend", "wife", "daughter",
			"mom", "mother", "mum", "grandma", "grandmother",
			"aunt", "niece", "woman", "girl", "lady",
		),
	},
	{
		gender: GenderMale,
		words: wordSet(
			"he", "him", "his", "himself",
			"brother", "boyfriend", "husband", "son",
			"dad", "father", "grandpa", "grandfather",
			"uncle", "nephew", "man", "boy",
		),
	},
}

// Gender returns GenderFemale, GenderMale, or GenderUnknown based on whole-word
// keyword hits in text. "the" never counts as "he".
func Gender(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	for _, g := range genderIndicators {
		for _, w := range words {
			if g.words[w] {
				return g.gender
			}
		}
	}
	return GenderUnknown
}
