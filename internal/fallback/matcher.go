package fallback

import (
	"log"
	"strings"
	"sync"
	"unicode"

	"github.com/qualbot/qualbot/internal/category"
)

// DefaultNoInfo is the last-resort response when a category has no curated
// default of its own.
const DefaultNoInfo = "I'm sorry, I don't have information on that topic right now. Please contact the agency directly for assistance."

// Match is a successful curated-answer lookup.
type Match struct {
	Question string
	Answer   string
	Score    float64
}

// Matcher compares queries against the curated table using normalized token
// overlap. Matching is deterministic: the same query against an unchanged
// table always yields the same verdict.
type Matcher struct {
	threshold float64

	mu    sync.RWMutex
	table *Table
}

// NewMatcher creates a matcher over the given table with the configured
// acceptance threshold.
func NewMatcher(table *Table, threshold float64) *Matcher {
	return &Matcher{threshold: threshold, table: table}
}

// Replace swaps in a new table. Used by the hot-reload watcher.
func (m *Matcher) Replace(table *Table) {
	m.mu.Lock()
	m.table = table
	m.mu.Unlock()
}

// Match returns the canonical answer whose question scores highest against
// the query, provided it clears the threshold. ok=false is an expected
// outcome, not an error.
func (m *Matcher) Match(cat category.Category, query string) (Match, bool) {
	m.mu.RLock()
	table := m.table
	m.mu.RUnlock()

	ct, ok := table.Categories[string(cat)]
	if !ok || len(ct.Entries) == 0 {
		return Match{}, false
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return Match{}, false
	}

	best := Match{Score: -1}
	for _, entry := range ct.Entries {
		score := similarity(queryTokens, tokenize(entry.Question))
		if score > best.Score {
			best = Match{Question: entry.Question, Answer: entry.Answer, Score: score}
		}
	}

	if best.Score < m.threshold {
		if best.Score >= 0 {
			log.Printf("fallback: no match for %q in %s (best %.2f < %.2f)", query, cat, best.Score, m.threshold)
		}
		return Match{}, false
	}
	return best, true
}

// DefaultAnswer returns the category's canned response, or the global
// no-information text when the category has none.
func (m *Matcher) DefaultAnswer(cat category.Category) string {
	m.mu.RLock()
	table := m.table
	m.mu.RUnlock()

	if ct, ok := table.Categories[string(cat)]; ok && ct.Default != "" {
		return ct.Default
	}
	return DefaultNoInfo
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// similarity is the Dice coefficient over token sets, with tokens of four
// or more characters also counting as equal at edit distance one, which
// absorbs single-character typos.
func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := uniq(a)
	setB := uniq(b)

	matched := 0
	used := make(map[string]bool, len(setB))
	for _, ta := range setA {
		for _, tb := range setB {
			if used[tb] {
				continue
			}
			if ta == tb || (len(ta) >= 4 && len(tb) >= 4 && editDistanceOne(ta, tb)) {
				matched++
				used[tb] = true
				break
			}
		}
	}

	return 2 * float64(matched) / float64(len(setA)+len(setB))
}

func uniq(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// editDistanceOne reports whether two strings are within Levenshtein
// distance one of each other.
func editDistanceOne(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}

	if la == lb {
		diffs := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diffs++
				if diffs > 1 {
					return false
				}
			}
		}
		return true
	}

	// b is one longer: check a equals b with one character deleted.
	i, j := 0, 0
	skipped := false
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}
