// Package gifts holds the static interest-to-gift rule table and turns a
// profile into an ordered list of recommendations.
package gifts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// ErrInvalidTable is returned when a rule file fails validation.
var ErrInvalidTable = errors.New("invalid gift table")

// Table maps interest categories to ordered gift lists. It is read-only
// after construction and safe for concurrent use.
type Table struct {
	categories []string
	gifts      map[string][]string
}

// tableFile is the on-disk YAML shape of a rule table.
type tableFile struct {
	Categories []string            `yaml:"categories"`
	Gifts      map[string][]string `yaml:"gifts"`
}

// NewTable validates and copies categories and gifts into a Table. Every
// gift category must appear in categories; categories may have no gifts.
func NewTable(categories []string, gifts map[string][]string) (*Table, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidTable)
	}
	t := &Table{
		categories: make([]string, 0, len(categories)),
		gifts:      make(map[string][]string, len(gifts)),
	}
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: empty category name", ErrInvalidTable)
		}
		if known[c] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidTable, c)
		}
		known[c] = true
		t.categories = append(t.categories, c)
	}
	for c, list := range gifts {
		if !known[c] {
			return nil, fmt.Errorf("%w: gifts listed for unknown category %q", ErrInvalidTable, c)
		}
		for _, g := range list {
			if strings.TrimSpace(g) == "" {
				return nil, fmt.Errorf("%w: empty gift in category %q", ErrInvalidTable, c)
			}
		}
		t.gifts[c] = append([]string(nil), list...)
	}
	return t, nil
}

// ParseTable decodes a YAML rule table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return NewTable(f.Categories, f.Gifts)
}

// LoadTable reads a YAML rule table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gift table: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := ParseTable(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("gifts: built-in table: %v", err))
	}
	return t
})

// DefaultTable returns the built-in rule table.
func DefaultTable() *Table {
	return defaultTable()
}

// Categories returns the interest taxonomy in declared order.
func (t *Table) Categories() []string {
	return append([]string(nil), t.categories...)
}

// HasCategory reports whether category is part of the taxonomy.
func (t *Table) HasCategory(category string) bool {
	for _, c := range t.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Gifts returns the gifts for category in rule order, or nil when the
// category has no rule.
func (t *Table) Gifts(category string) []string {
	list, ok := t.gifts[category]
	if !ok {
		return nil
	}
	return append([]string(nil), list...)
}

// Rules returns a copy of the full category to gift mapping.
func (t *Table) Rules() map[string][]string {
	out := make(map[string][]string, len(t.gifts))
	for c, list := range t.gifts {
		out[c] = append([]string(nil), list...)
	}
	return out
}

// MarshalYAML renders the table in the same shape ParseTable accepts.
func (t *Table) MarshalYAML() (any, error) {
	return tableFile{Categories: t.Categories(), Gifts: t.Rules()}, nil
}
