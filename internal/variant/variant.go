// Package variant defines the experiment arms a visitor can be assigned to
// and the weights used to draw between them.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidVariant = errors.New("invalid variant")

// Variant is one arm of an experiment, identified by a short symbol.
type Variant string

func (v Variant) String() string {
	return string(v)
}

// Set is the ordered enumeration of valid variants. Position i of the set
// corresponds to position i of a Distribution.
type Set struct {
	variants []Variant
}

// DefaultSet returns the four-arm set a, b, c, d.
func DefaultSet() Set {
	return Set{variants: []Variant{"a", "b", "c", "d"}}
}

// NewSet builds a set from the given symbols, in order. Symbols must be
// non-empty and unique.
func NewSet(symbols ...string) (Set, error) {
	if len(symbols) == 0 {
		return Set{}, fmt.Errorf("variant set must not be empty")
	}

	seen := make(map[string]bool, len(symbols))
	variants := make([]Variant, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			return Set{}, fmt.Errorf("variant set contains an empty symbol")
		}
		if seen[s] {
			return Set{}, fmt.Errorf("variant %q listed twice", s)
		}
		seen[s] = true
		variants = append(variants, Variant(s))
	}

	return Set{variants: variants}, nil
}

// ParseSet parses a comma-separated list such as "a,b,c".
func ParseSet(list string) (Set, error) {
	return NewSet(strings.Split(list, ",")...)
}

func (s Set) Len() int {
	return len(s.variants)
}

// At returns the variant at ordinal position i.
func (s Set) At(i int) (Variant, bool) {
	if i < 0 || i >= len(s.variants) {
		return "", false
	}
	return s.variants[i], true
}

// First returns the variant at position 0. Panics on an empty set.
func (s Set) First() Variant {
	return s.variants[0]
}

// Index returns the position of v, or -1 if v is not a member.
func (s Set) Index(v Variant) int {
	for i, candidate := range s.variants {
		if candidate == v {
			return i
		}
	}
	return -1
}

func (s Set) Contains(v Variant) bool {
	return s.Index(v) >= 0
}

// Parse returns the member matching str, or ErrInvalidVariant.
func (s Set) Parse(str string) (Variant, error) {
	v := Variant(str)
	if !s.Contains(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVariant, str)
	}
	return v, nil
}

// Variants returns a copy of the members in order.
func (s Set) Variants() []Variant {
	out := make([]Variant, len(s.variants))
	copy(out, s.variants)
	return out
}

// Strings returns the members as plain strings, in order.
func (s Set) Strings() []string {
	out := make([]string, len(s.variants))
	for i, v := range s.variants {
		out[i] = string(v)
	}
	return out
}

func (s Set) String() string {
	return strings.Join(s.Strings(), ",")
}
