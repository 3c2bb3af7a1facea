package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/chunker"
	"github.com/qualbot/qualbot/internal/config"
)

// IngestResult summarizes one ingestion batch.
type IngestResult struct {
	Category        category.Category `json:"category"`
	DocumentsLoaded int               `json:"documents_loaded"`
	PassagesIndexed int               `json:"passages_indexed"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// ProgressFunc receives ingest progress updates. May be nil.
type ProgressFunc func(current, total int, message string)

// Ingest loads every supported document under sourceDir, chunks them with
// the given configuration and atomically replaces the category's index.
// Re-running with the same source replaces the same content: document
// identifiers and chunk boundaries are deterministic. Skipped files are
// reported as warnings; a rebuild failure leaves the previous index intact.
func (e *Engine) Ingest(ctx context.Context, categoryName, sourceDir string, chunkCfg config.ChunkConfig, progress ProgressFunc) (*IngestResult, error) {
	cat, err := e.registry.Resolve(categoryName)
	if err != nil {
		return nil, err
	}
	if chunkCfg.Size <= 0 {
		chunkCfg = e.cfg.Chunk
	}
	if chunkCfg.Overlap < 0 || chunkCfg.Overlap >= chunkCfg.Size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkCfg.Overlap, chunkCfg.Size)
	}

	docs, warnings, err := e.loader.LoadAll(ctx, cat, sourceDir)
	if err != nil {
		return nil, fmt.Errorf("loading %s documents: %w", cat, err)
	}

	result := &IngestResult{Category: cat}
	for _, w := range warnings {
		log.Printf("ingest: %s: skipped %s", cat, w)
		result.Warnings = append(result.Warnings, w.String())
	}

	var passages []chunker.Passage
	for i, doc := range docs {
		if progress != nil {
			progress(i+1, len(docs), doc.Name)
		}
		passages = append(passages, chunker.Split(doc, chunkCfg)...)
	}
	result.DocumentsLoaded = len(docs)
	result.PassagesIndexed = len(passages)

	if err := e.store.Rebuild(ctx, cat, passages); err != nil {
		return nil, fmt.Errorf("rebuilding %s index: %w", cat, err)
	}

	log.Printf("ingest: %s: %d documents, %d passages indexed", cat, result.DocumentsLoaded, result.PassagesIndexed)
	return result, nil
}
