package gifts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/giftwise/internal/profile"
)

func interest(phrase, category string) profile.Interest {
	return profile.Interest{
		Phrase:         phrase,
		Category:       category,
		Confidence:     0.9,
		Sentiment:      profile.SentimentPositive,
		SentimentScore: 0.99,
	}
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	wantCats := []string{"art", "music", "sports", "technology", "reading", "travel", "cooking", "gaming", "fashion", "outdoor activities"}
	if got := tbl.Categories(); !reflect.DeepEqual(got, wantCats) {
		t.Errorf("Categories() = %q, want %q", got, wantCats)
	}
	wantArt := []string{"art supplies set", "digital drawing tablet", "museum membership"}
	if got := tbl.Gifts("art"); !reflect.DeepEqual(got, wantArt) {
		t.Errorf("Gifts(art) = %q, want %q", got, wantArt)
	}
	if got := tbl.Gifts("fashion"); got != nil {
		t.Errorf("Gifts(fashion) = %q, want nil", got)
	}
	if !tbl.HasCategory("outdoor activities") {
		t.Error("HasCategory(outdoor activities) = false, want true")
	}
	if tbl.HasCategory("astronomy") {
		t.Error("HasCategory(astronomy) = true, want false")
	}
	if n := len(tbl.Rules()); n != 8 {
		t.Errorf("len(Rules()) = %d, want 8", n)
	}
}

func TestTable_CopiesAreIndependent(t *testing.T) {
	tbl := DefaultTable()
	g := tbl.Gifts("music")
	g[0] = "kazoo"
	tbl.Rules()["music"][1] = "kazoo"
	if tbl.Gifts("music")[0] != "wireless headphones" || tbl.Gifts("music")[1] != "concert tickets" {
		t.Error("table mutated through returned slice")
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		gifts      map[string][]string
	}{
		{"no categories", nil, nil},
		{"empty category", []string{"art", " "}, nil},
		{"duplicate category", []string{"art", "art"}, nil},
		{"unknown gift category", []string{"art"}, map[string][]string{"music": {"vinyl"}}},
		{"empty gift", []string{"art"}, map[string][]string{"art": {""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.categories, tt.gifts); !errors.Is(err, ErrInvalidTable) {
				t.Errorf("NewTable() err = %v, want ErrInvalidTable", err)
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := []byte("categories: [board games, tea]\ngifts:\n  tea:\n    - matcha kit\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if got := tbl.Categories(); !reflect.DeepEqual(got, []string{"board games", "tea"}) {
		t.Errorf("Categories() = %q", got)
	}
	if got := tbl.Gifts("tea"); !reflect.DeepEqual(got, []string{"matcha kit"}) {
		t.Errorf("Gifts(tea) = %q", got)
	}
}

func TestLoadTable_Errors(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want ErrNotExist", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("categories: [a\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("bad yaml err = %v, want ErrInvalidTable", err)
	}
}

func TestTable_YAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultTable())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	tbl, err := ParseTable(data)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if !reflect.DeepEqual(tbl.Categories(), DefaultTable().Categories()) || !reflect.DeepEqual(tbl.Rules(), DefaultTable().Rules()) {
		t.Error("round-tripped table differs from default")
	}
}

func TestRecommend_OrderAndCap(t *testing.T) {
	p := profile.Profile{Interests: []profile.Interest{
		interest("painting", "art"),
		interest("traveling", "travel"),
	}}
	got := Recommend(p, DefaultTable())
	want := []Recommendation{
		{Gift: "art supplies set", Category: "art", Reason: "Based on interest in painting"},
		{Gift: "digital drawing tablet", Category: "art", Reason: "Based on interest in painting"},
		{Gift: "museum membership", Category: "art", Reason: "Based on interest in painting"},
		{Gift: "travel gear", Category: "travel", Reason: "Based on interest in traveling"},
		{Gift: "language courses", Category: "travel", Reason: "Based on interest in traveling"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recommend() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestRecommend_NeverExceedsCap(t *testing.T) {
	var ins []profile.Interest
	for _, c := range DefaultTable().Categories() {
		ins = append(ins, interest(c, c))
	}
	if got := Recommend(profile.Profile{Interests: ins}, DefaultTable()); len(got) != MaxRecommendations {
		t.Errorf("len(Recommend()) = %d, want %d", len(got), MaxRecommendations)
	}
}

func TestRecommend_UnknownCategorySkipped(t *testing.T) {
	p := profile.Profile{Interests: []profile.Interest{
		interest("nice shoes", "fashion"),
		interest("stargazing", "astronomy"),
		interest("jazz", "music"),
	}}
	got := Recommend(p, DefaultTable())
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, r := range got {
		if r.Category != "music" {
			t.Errorf("unexpected recommendation %+v", r)
		}
	}
}

func TestRecommend_Empty(t *testing.T) {
	got := Recommend(profile.Profile{}, DefaultTable())
	if got == nil || len(got) != 0 {
		t.Errorf("Recommend(empty) = %#v, want empty non-nil", got)
	}
	data, _ := json.Marshal(got)
	if string(data) != "[]" {
		t.Errorf("json = %s, want []", data)
	}
}

func TestFormat(t *testing.T) {
	age := 25
	p := profile.Profile{
		Age:       &age,
		Gender:    profile.GenderFemale,
		Interests: []profile.Interest{interest("painting", "art")},
		Dislikes:  []string{"loud noises", "spicy food"},
	}
	recs := Recommend(p, DefaultTable())[:2]
	want := "Profile Summary:\n" +
		"Age: 25\n" +
		"Gender: Female\n" +
		"Interests: painting\n" +
		"Dislikes: loud noises, spicy food\n" +
		"\n" +
		"Top Recommendations:\n" +
		"1. art supplies set\n" +
		"   • Based on interest in painting\n" +
		"2. digital drawing tablet\n" +
		"   • Based on interest in painting"
	if got := Format(p, recs); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_Empty(t *testing.T) {
	p := profile.Profile{Gender: profile.GenderUnknown}
	want := "Profile Summary:\nAge: Unknown\nGender: Unknown\nInterests: None"
	if got := Format(p, nil); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
