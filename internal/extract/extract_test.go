package extract

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("  She\tloves\n painting  ")
	want := []string{"She", "loves", "painting"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %q, want %q", got, want)
	}
	if got := Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %q, want empty", got)
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"25-year-old sister", 25, true},
		{"age is 150 years", 0, false},
		{"no age here", 0, false},
		{"", 0, false},
		{"turning 30 next week", 30, true},
		{"She is 40 years old", 40, true},
		{"a 7 year old boy", 7, true},
		{"my 3 kids, the eldest is 12 years old", 12, true},
		{"born in 2024, now 2", 2, true},
		{"0 years old", 0, false},
		{"room 5B on floor 9", 9, true},
		{"the 99 yearsold", 99, true},
		{"30years old", 30, true},
		{"my 8-years-old nephew", 8, true},
		{"20x zoom", 0, false},
		{"20x zoom, turning 31 years old", 31, true},
		{"21st birthday, she is 30", 30, true},
	}
	for _, tt := range tests {
		got, ok := Age(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Age(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAge_PhraseDecidesEvenWhenInvalid(t *testing.T) {
	// The first "years old" candidate is authoritative; a bare number
	// elsewhere is not consulted.
	if got, ok := Age("5 cats and 0 years old"); ok {
		t.Errorf("Age() = %d, want no age", got)
	}
}

func TestGender(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"dad loves", GenderMale},
		{"my mother enjoys", GenderFemale},
		{"they like", GenderUnknown},
		{"", GenderUnknown},
		{"the other one", GenderUnknown},
		{"HE likes chess", GenderMale},
		{"my sister and her husband", GenderFemale},
		{"his wife", GenderFemale},
		{"shepherd", GenderUnknown},
	}
	for _, tt := range tests {
		if got := Gender(tt.text); got != tt.want {
			t.Errorf("Gender(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestInterestCandidates(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"She loves painting and enjoys traveling", []string{"painting", "traveling"}},
		{"She loves art and music", []string{"art", "music"}},
		{"He likes gaming", []string{"gaming"}},
		{"They enjoy reading, cooking, and traveling", []string{"reading", "cooking", "traveling"}},
		{"Loves: jazz", []string{"jazz"}},
		{"likes the band Queen", []string{"the band Queen"}},
		{"loves art and likes art", []string{"art"}},
		{"LOVES Sci-Fi", []string{"Sci-Fi"}},
		{"a quiet person", []string{}},
		{"", []string{}},
		{"loves", []string{}},
		{"She loves painting, and enjoys traveling.", []string{"painting", "traveling"}},
		{"He loves chess!", []string{"chess"}},
		{"She likes jazz?", []string{"jazz"}},
		{"loves ...", []string{}},
	}
	for _, tt := range tests {
		got := InterestCandidates(tt.text)
		if got == nil {
			t.Errorf("InterestCandidates(%q) = nil, want non-nil", tt.text)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("InterestCandidates(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestInterestCandidates_Counts(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"She loves art and music", 2},
		{"He likes gaming", 1},
		{"They enjoy reading, cooking, and traveling", 3},
	}
	for _, tt := range tests {
		if got := len(InterestCandidates(tt.text)); got != tt.want {
			t.Errorf("len(InterestCandidates(%q)) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestDislikes(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"She hates loud noises and doesn't like spicy food", []string{"loud noises", "spicy food"}},
		{"He doesn’t like jazz.", []string{"jazz"}},
		{"She does not like Crowds! But loves parks", []string{"crowds"}},
		{"dislikes rain. Also hates rain", []string{"rain", "rain"}},
		{"I don't like cold weather; never did", []string{"cold weather"}},
		{"whatever she hated", []string{}},
		{"loves everything", []string{}},
		{"I hate", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := Dislikes(tt.text)
		if got == nil {
			t.Errorf("Dislikes(%q) = nil, want non-nil", tt.text)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Dislikes(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSplitOnWord(t *testing.T) {
	got := splitOnWord("rock AND roll and android", "and")
	want := []string{"rock ", " roll ", " android"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitOnWord() = %q, want %q", got, want)
	}
}
