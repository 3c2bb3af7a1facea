// Package category defines the domain partitions of the document corpus.
// A category is data, not a type hierarchy: every document, index and query
// belongs to exactly one category, and categories never see each other's
// content.
package category

import (
	"fmt"
	"regexp"
	"strings"
)

// Category identifies one partition of the corpus (e.g. "accreditation").
type Category string

// Defaults are the categories the service ships with. The configured set
// may extend this list.
var Defaults = []Category{
	"accreditation",
	"framework",
	"qualifications",
	"recognition",
	"equivalency",
	"apel",
	"faq",
}

var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ErrInvalid is returned for a category outside the configured set.
type ErrInvalid struct {
	Name  string
	Known []Category
}

func (e *ErrInvalid) Error() string {
	known := make([]string, len(e.Known))
	for i, c := range e.Known {
		known[i] = string(c)
	}
	return fmt.Sprintf("invalid category %q: must be one of %s", e.Name, strings.Join(known, ", "))
}

// Registry is the configured category set, loaded once at startup so that
// the index store, fallback tables and request validation all agree on the
// same list.
type Registry struct {
	categories []Category
	lookup     map[Category]bool
}

// NewRegistry builds a registry from the configured category names.
// Names must be lowercase slugs; duplicates are collapsed.
func NewRegistry(names []string) (*Registry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}

	r := &Registry{lookup: make(map[Category]bool, len(names))}
	for _, name := range names {
		if !slugPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid category name %q: must match %s", name, slugPattern)
		}
		c := Category(name)
		if r.lookup[c] {
			continue
		}
		r.lookup[c] = true
		r.categories = append(r.categories, c)
	}
	return r, nil
}

// Resolve validates a raw category name against the registry.
func (r *Registry) Resolve(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if !r.lookup[c] {
		return "", &ErrInvalid{Name: name, Known: r.categories}
	}
	return c, nil
}

// All returns the categories in configuration order.
func (r *Registry) All() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Title renders a category for display ("apel" -> "Apel",
// "prior_learning" -> "Prior Learning").
func (c Category) Title() string {
	words := strings.FieldsFunc(string(c), func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
