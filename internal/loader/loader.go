// Package loader reads raw source files for one category and yields
// normalized text documents. Unsupported or unreadable files produce
// warnings, never abort a batch.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/qualbot/qualbot/internal/category"
)

// Format tags the source file type of a document.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDocx     Format = "docx"
)

// Document is a normalized source file: stable identifier, category,
// extracted text and provenance. Immutable once loaded.
type Document struct {
	ID       string
	Category category.Category
	Name     string // base file name, used for source attribution
	Path     string // path relative to the source root
	Format   Format
	Content  string
}

// Warning records a file that was skipped during a batch.
type Warning struct {
	Path   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// extractor converts raw file bytes into plain text.
type extractor func(path string) (string, error)

var extractors = map[string]struct {
	format  Format
	extract extractor
}{
	".txt":  {FormatText, extractText},
	".md":   {FormatMarkdown, extractMarkdown},
	".pdf":  {FormatPDF, extractPDF},
	".docx": {FormatDocx, extractDocx},
}

// Loader walks a source directory and yields documents for the supported
// formats, filtered by include/exclude glob patterns.
type Loader struct {
	include []string
	exclude []string
}

// New creates a Loader. Empty include means "all supported files".
func New(include, exclude []string) *Loader {
	return &Loader{include: include, exclude: exclude}
}

// Load walks dir and streams each successfully extracted document to fn.
// Files are visited in sorted path order so repeated runs over the same
// tree yield documents in the same order. Returned warnings cover skipped
// and unreadable files; only a failed walk or a failed fn is an error.
func (l *Loader) Load(ctx context.Context, cat category.Category, dir string, fn func(Document) error) ([]Warning, error) {
	var warnings []Warning

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if !l.matches(rel) {
			continue
		}

		ext := strings.ToLower(filepath.Ext(path))
		entry, ok := extractors[ext]
		if !ok {
			warnings = append(warnings, Warning{Path: rel, Reason: fmt.Sprintf("unsupported format %q", ext)})
			continue
		}

		content, err := entry.extract(path)
		if err != nil {
			warnings = append(warnings, Warning{Path: rel, Reason: err.Error()})
			continue
		}
		content = normalize(content)
		if content == "" {
			warnings = append(warnings, Warning{Path: rel, Reason: "no extractable text"})
			continue
		}

		doc := Document{
			ID:       documentID(cat, rel),
			Category: cat,
			Name:     filepath.Base(path),
			Path:     rel,
			Format:   entry.format,
			Content:  content,
		}
		if err := fn(doc); err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// LoadAll collects every document from dir into a slice.
func (l *Loader) LoadAll(ctx context.Context, cat category.Category, dir string) ([]Document, []Warning, error) {
	var docs []Document
	warnings, err := l.Load(ctx, cat, dir, func(d Document) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}
	return docs, warnings, nil
}

// matches applies include then exclude patterns to a slash-separated
// relative path. Patterns use doublestar for ** support, with a base-name
// fallback so "*.tmp" excludes temp files anywhere in the tree.
func (l *Loader) matches(rel string) bool {
	base := filepath.Base(rel)

	included := len(l.include) == 0
	for _, pattern := range l.include {
		if matched, err := doublestar.PathMatch(pattern, rel); err == nil && matched {
			included = true
			break
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range l.exclude {
		if matched, err := doublestar.PathMatch(pattern, rel); err == nil && matched {
			return false
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return false
		}
	}
	return true
}

// normalize collapses line endings and trims outer whitespace so that
// chunk boundaries do not depend on the source platform.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// documentID derives a stable identifier from category and relative path,
// so re-ingesting the same tree replaces the same documents.
func documentID(cat category.Category, rel string) string {
	sum := sha256.Sum256([]byte(string(cat) + ":" + rel))
	return hex.EncodeToString(sum[:8])
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
