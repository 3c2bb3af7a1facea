// Package chunker splits normalized documents into overlapping fixed-size
// passages for embedding and retrieval. Splitting is a pure function of the
// document text and the chunk configuration, so re-ingesting the same source
// always reproduces identical passage boundaries.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/loader"
)

// Passage is one chunk of a document: its position inside the document,
// its character span in the normalized content, and the text itself.
type Passage struct {
	ID         string
	DocumentID string
	Document   string // source file name, carried for attribution
	Index      int
	Start      int // character span in the document content
	End        int
	Text       string
}

// Split produces the ordered passage sequence for a document. Successive
// passages overlap by cfg.Overlap characters; a document shorter than
// cfg.Size yields exactly one passage. Chunk ends prefer a whitespace
// boundary in the second half of the window so words are not cut mid-way,
// which keeps every passage at least cfg.Size/2 characters long (except
// the final one).
func Split(doc loader.Document, cfg config.ChunkConfig) []Passage {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil
	}

	size := cfg.Size
	overlap := cfg.Overlap

	var passages []Passage
	start := 0
	index := 0

	for start < len(content) {
		end := start + size
		if end >= len(content) {
			end = len(content)
		} else {
			end = boundary(content, start, end)
			end = runeFloor(content, end)
			if end <= start {
				// Window smaller than one rune; take the whole rune anyway.
				_, n := utf8.DecodeRuneInString(content[start:])
				end = start + n
			}
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			passages = append(passages, Passage{
				ID:         fmt.Sprintf("%s:%d", doc.ID, index),
				DocumentID: doc.ID,
				Document:   doc.Name,
				Index:      index,
				Start:      start,
				End:        end,
				Text:       text,
			})
			index++
		}

		if end == len(content) {
			break
		}

		next := runeFloor(content, end-overlap)
		if next <= start {
			// Overlap would stall the window; step past it.
			next = end
		}
		start = next
	}

	return passages
}

// boundary walks back from end to the last whitespace rune, but never past
// the midpoint of the window, so chunk sizes stay bounded below.
func boundary(content string, start, end int) int {
	floor := start + (end-start)/2
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(rune(content[i])) {
			return i
		}
	}
	return end
}

// runeFloor snaps a byte offset down to the nearest rune boundary, so a cut
// never bisects a multibyte character.
func runeFloor(content string, i int) int {
	for i > 0 && i < len(content) && !utf8.RuneStart(content[i]) {
		i--
	}
	return i
}
