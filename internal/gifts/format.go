package gifts

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kalambet/giftwise/internal/profile"
)

// Format renders a profile summary followed by the numbered recommendations.
func Format(p profile.Profile, recs []Recommendation) string {
	var b strings.Builder

	age := "Unknown"
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	interests := "None"
	if len(p.Interests) > 0 {
		phrases := make([]string, len(p.Interests))
		for i, in := range p.Interests {
			phrases[i] = in.Phrase
		}
		interests = strings.Join(phrases, ", ")
	}

	b.WriteString("Profile Summary:\n")
	fmt.Fprintf(&b, "Age: %s\n", age)
	fmt.Fprintf(&b, "Gender: %s\n", cases.Title(language.English).String(string(p.Gender)))
	fmt.Fprintf(&b, "Interests: %s", interests)
	if len(p.Dislikes) > 0 {
		fmt.Fprintf(&b, "\nDislikes: %s", strings.Join(p.Dislikes, ", "))
	}

	if len(recs) > 0 {
		b.WriteString("\n\nTop Recommendations:")
		for i, r := range recs {
			fmt.Fprintf(&b, "\n%d. %s\n   • %s", i+1, r.Gift, r.Reason)
		}
	}
	return b.String()
}
