package gifts

import (
	"fmt"

	"github.com/kalambet/giftwise/internal/profile"
)

// MaxRecommendations caps the number of gifts returned for one profile.
const MaxRecommendations = 5

// Recommendation is one suggested gift and the interest that produced it.
type Recommendation struct {
	Gift     string `json:"gift"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Recommend walks the profile's interests in order and emits the table's
// gifts for each known category, keeping at most MaxRecommendations.
// Interests whose category has no rule contribute nothing. The result is
// never nil.
func Recommend(p profile.Profile, t *Table) []Recommendation {
	recs := []Recommendation{}
	for _, in := range p.Interests {
		for _, gift := range t.gifts[in.Category] {
			if len(recs) == MaxRecommendations {
				return recs
			}
			recs = append(recs, Recommendation{
				Gift:     gift,
				Category: in.Category,
				Reason:   fmt.Sprintf("Based on interest in %s", in.Phrase),
			})
		}
	}
	return recs
}
