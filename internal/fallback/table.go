// Package fallback answers queries from hand-curated question/answer tables
// when retrieval or generation is unavailable or insufficient. Tables live
// in one YAML file keyed by category and can be edited offline and reloaded
// without a restart.
package fallback

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one canonical question/answer pair. Immutable, hand-curated.
type Entry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// CategoryTable holds the curated entries for one category plus the canned
// response used when nothing matches.
type CategoryTable struct {
	Default string  `yaml:"default"`
	Entries []Entry `yaml:"entries"`
}

// Table is the full curated mapping, versioned so operators can track
// edits to the file.
type Table struct {
	Version    int                      `yaml:"version"`
	Categories map[string]CategoryTable `yaml:"categories"`
}

// LoadTable reads and parses the curated YAML file. A missing file yields
// an empty table: the service still runs, it just has no curated answers.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Table{Categories: map[string]CategoryTable{}}, nil
		}
		return nil, fmt.Errorf("reading fallback table %s: %w", path, err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing fallback table %s: %w", path, err)
	}
	if t.Categories == nil {
		t.Categories = map[string]CategoryTable{}
	}
	return &t, nil
}
