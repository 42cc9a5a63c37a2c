// Package category defines the closed set of consent categories shared by the
// script gate, the client runtime, and the audit pipeline.
package category

// Category labels why a script runs or a cookie is set. Consent is granted and
// revoked at category granularity.
type Category string

const (
	Necessary     Category = "necessary"
	Analytics     Category = "analytics"
	Marketing     Category = "marketing"
	Functionality Category = "functionality"
)

// All lists every valid category in canonical order. The order is stable so
// stored category sets and rendered config stay deterministic.
var All = []Category{Necessary, Analytics, Marketing, Functionality}

// Gated lists the categories that require an explicit grant. Necessary is
// always implicitly granted and never gated.
var Gated = []Category{Analytics, Marketing, Functionality}

var valid = map[Category]bool{
	Necessary:     true,
	Analytics:     true,
	Marketing:     true,
	Functionality: true,
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return valid[c]
}

// Filter returns the subset of names that are valid categories, in canonical
// order and without duplicates. Unknown names are dropped silently: clients
// may send noise, the server stores only the closed set.
func Filter(names []string) []Category {
	seen := make(map[Category]bool, len(names))
	for _, name := range names {
		c := Category(name)
		if c.IsValid() {
			seen[c] = true
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range All {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// Names converts a category slice to plain strings for storage and transport.
func Names(cats []Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// Set is a grant lookup over categories. Necessary is always granted.
type Set map[Category]bool

// NewSet builds a Set from the granted categories. Invalid names are ignored
// and Necessary is always included.
func NewSet(granted []Category) Set {
	s := Set{Necessary: true}
	for _, c := range granted {
		if c.IsValid() {
			s[c] = true
		}
	}
	return s
}

// Granted reports whether the category has been granted.
func (s Set) Granted(c Category) bool {
	if c == Necessary {
		return true
	}
	return s[c]
}

// List returns the granted categories in canonical order.
func (s Set) List() []Category {
	var out []Category
	for _, c := range All {
		if s.Granted(c) {
			out = append(out, c)
		}
	}
	return out
}
