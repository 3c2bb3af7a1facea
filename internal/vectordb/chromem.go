package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/chunker"
	"github.com/qualbot/qualbot/internal/embeddings"
)

const collectionName = "passages"

// categoryIndex is one immutable index snapshot. Rebuild replaces the whole
// value; it is never mutated after being published.
type categoryIndex struct {
	db  *chromem.DB
	col *chromem.Collection
}

// ChromemStore implements Store using one chromem-go database per category,
// each persisted as a separate gob.gz artifact under dir.
type ChromemStore struct {
	embedder embeddings.Embedder
	dir      string

	mu      sync.RWMutex
	indexes map[category.Category]*categoryIndex
}

// NewChromemStore creates a store for the registered categories. Indexes
// start empty; call Load to restore persisted artifacts.
func NewChromemStore(embedder embeddings.Embedder, dir string, reg *category.Registry) *ChromemStore {
	indexes := make(map[category.Category]*categoryIndex)
	for _, cat := range reg.All() {
		indexes[cat] = nil
	}
	return &ChromemStore{
		embedder: embedder,
		dir:      dir,
		indexes:  indexes,
	}
}

func (s *ChromemStore) artifactPath(cat category.Category) string {
	return filepath.Join(s.dir, string(cat)+".gob.gz")
}

// Rebuild constructs a complete new index for the category, persists it,
// and swaps it in. The old index stays valid for concurrent readers until
// the swap, and stays in place entirely if any step fails.
func (s *ChromemStore) Rebuild(ctx context.Context, cat category.Category, passages []chunker.Passage) error {
	if _, ok := s.snapshot(cat); !ok {
		return &category.ErrInvalid{Name: string(cat)}
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, embeddings.ToChromemFunc(s.embedder))
	if err != nil {
		return fmt.Errorf("creating collection for %s: %w", cat, err)
	}

	if len(passages) > 0 {
		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Text
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding %d passages for %s: %w", len(passages), cat, err)
		}
		if len(vectors) != len(passages) {
			return fmt.Errorf("embedder returned %d vectors for %d passages", len(vectors), len(passages))
		}

		docs := make([]chromem.Document, len(passages))
		for i, p := range passages {
			docs[i] = chromem.Document{
				ID:        p.ID,
				Content:   p.Text,
				Embedding: vectors[i],
				Metadata:  passageToMap(p, i),
			}
		}
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("adding passages for %s: %w", cat, err)
		}
	}

	if err := s.persist(db, cat); err != nil {
		return fmt.Errorf("persisting index for %s: %w", cat, err)
	}

	s.mu.Lock()
	s.indexes[cat] = &categoryIndex{db: db, col: col}
	s.mu.Unlock()

	return nil
}

// persist exports the database to a temp file and renames it over the
// previous artifact, so a crash mid-write never corrupts the on-disk index.
func (s *ChromemStore) persist(db *chromem.DB, cat category.Category) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	final := s.artifactPath(cat)
	tmp := final + ".tmp"
	if err := db.ExportToFile(tmp, true, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("exporting index: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index artifact: %w", err)
	}
	return nil
}

// snapshot returns the current index for the category without holding the
// lock during the query itself.
func (s *ChromemStore) snapshot(cat category.Category) (*categoryIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[cat]
	return idx, ok
}

func (s *ChromemStore) Query(ctx context.Context, cat category.Category, queryVec []float32, k int) ([]Result, error) {
	idx, ok := s.snapshot(cat)
	if !ok {
		return nil, &category.ErrInvalid{Name: string(cat)}
	}
	if idx == nil || idx.col.Count() == 0 {
		return nil, fmt.Errorf("category %s: %w", cat, ErrEmptyIndex)
	}

	if k <= 0 {
		k = 3
	}
	// chromem-go requires nResults <= collection size.
	if count := idx.col.Count(); k > count {
		k = count
	}

	results, err := idx.col.QueryEmbedding(ctx, queryVec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying %s index: %w", cat, err)
	}

	out := make([]Result, len(results))
	seqs := make([]int, len(results))
	for i, r := range results {
		p, seq := mapToPassage(r.ID, r.Content, r.Metadata)
		out[i] = Result{Passage: p, Similarity: r.Similarity}
		seqs[i] = seq
	}

	// Deterministic order: score descending, insertion order on ties.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return seqs[i] < seqs[j]
	})

	return out, nil
}

func (s *ChromemStore) Count(cat category.Category) int {
	idx, ok := s.snapshot(cat)
	if !ok || idx == nil {
		return 0
	}
	return idx.col.Count()
}

// Load restores every category's persisted artifact. Categories without an
// artifact remain empty and answer through the fallback path.
func (s *ChromemStore) Load(ctx context.Context) error {
	s.mu.RLock()
	cats := make([]category.Category, 0, len(s.indexes))
	for cat := range s.indexes {
		cats = append(cats, cat)
	}
	s.mu.RUnlock()

	for _, cat := range cats {
		path := s.artifactPath(cat)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		db := chromem.NewDB()
		if err := db.ImportFromFile(path, ""); err != nil {
			return fmt.Errorf("importing index for %s: %w", cat, err)
		}
		col := db.GetCollection(collectionName, embeddings.ToChromemFunc(s.embedder))
		if col == nil {
			return fmt.Errorf("collection %q not found in artifact for %s", collectionName, cat)
		}

		s.mu.Lock()
		s.indexes[cat] = &categoryIndex{db: db, col: col}
		s.mu.Unlock()
	}
	return nil
}

// passageToMap flattens a passage into chromem's string metadata. seq is the
// insertion position used for deterministic tie-breaking.
func passageToMap(p chunker.Passage, seq int) map[string]string {
	return map[string]string{
		"document_id": p.DocumentID,
		"document":    p.Document,
		"index":       strconv.Itoa(p.Index),
		"start":       strconv.Itoa(p.Start),
		"end":         strconv.Itoa(p.End),
		"seq":         strconv.Itoa(seq),
	}
}

func mapToPassage(id, content string, m map[string]string) (chunker.Passage, int) {
	index, _ := strconv.Atoi(m["index"])
	start, _ := strconv.Atoi(m["start"])
	end, _ := strconv.Atoi(m["end"])
	seq, _ := strconv.Atoi(m["seq"])

	return chunker.Passage{
		ID:         id,
		DocumentID: m["document_id"],
		Document:   m["document"],
		Index:      index,
		Start:      start,
		End:        end,
		Text:       content,
	}, seq
}
