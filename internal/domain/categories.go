package domain

import (
	"fmt"
	"regexp"
	"sort"
)

// categoryCodePattern constrains category codes to short uppercase tokens.
var categoryCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,15}$`)

// IsCategoryCode reports whether s is a well-formed category code.
func IsCategoryCode(s string) bool { return categoryCodePattern.MatchString(s) }

// CategorySet is the fixed mapping from category code to human-readable
// description shared by every source and prompt builder. It is constructed
// once at startup and never mutated; the aggregator itself is
// category-agnostic and works over whatever codes appear in its input.
type CategorySet struct {
	descriptions map[string]string
	codes        []string
}

// NewCategorySet builds an immutable category set from a code-to-description
// mapping. Codes must be short uppercase tokens and descriptions must be
// non-empty.
func NewCategorySet(descriptions map[string]string) (CategorySet, error) {
	if len(descriptions) == 0 {
		return CategorySet{}, fmt.Errorf("category set cannot be empty")
	}

	owned := make(map[string]string, len(descriptions))
	codes := make([]string, 0, len(descriptions))
	for code, desc := range descriptions {
		if !IsCategoryCode(code) {
			return CategorySet{}, fmt.Errorf("invalid category code %q", code)
		}
		if desc == "" {
			return CategorySet{}, fmt.Errorf("category %s has an empty description", code)
		}
		owned[code] = desc
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return CategorySet{descriptions: owned, codes: codes}, nil
}

// Codes returns the category codes in sorted order. The returned slice is
// a copy; callers may not mutate the set through it.
func (c CategorySet) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Description returns the human-readable description for a code.
func (c CategorySet) Description(code string) (string, bool) {
	desc, ok := c.descriptions[code]
	return desc, ok
}

// Contains reports whether the set defines the given code.
func (c CategorySet) Contains(code string) bool {
	_, ok := c.descriptions[code]
	return ok
}

// Len returns the number of categories in the set.
func (c CategorySet) Len() int { return len(c.codes) }
