package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/engine"
	"github.com/qualbot/qualbot/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [category]",
	Short: "Load, chunk and index a category's documents",
	Long: `Reads every supported document under the category's source directory,
splits them into overlapping passages, embeds the passages and atomically
replaces the category's vector index. Other categories are untouched.
With --all, every configured category is ingested from data_dir/<category>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("all", false, "ingest every configured category")
	ingestCmd.Flags().String("source", "", "source directory (default data_dir/<category>)")
	ingestCmd.Flags().Int("chunk-size", 0, "passage size in characters (default from config)")
	ingestCmd.Flags().Int("chunk-overlap", 0, "passage overlap in characters (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	all, _ := cmd.Flags().GetBool("all")
	source, _ := cmd.Flags().GetString("source")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	chunkOverlap, _ := cmd.Flags().GetInt("chunk-overlap")

	if !all && len(args) == 0 {
		return fmt.Errorf("specify a category or use --all")
	}
	if all && source != "" {
		return fmt.Errorf("--source cannot be combined with --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chunkCfg := cfg.Chunk
	if chunkSize > 0 {
		chunkCfg.Size = chunkSize
	}
	if chunkOverlap > 0 {
		chunkCfg.Overlap = chunkOverlap
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	categories := args
	if all {
		categories = cfg.Categories
	}

	for _, cat := range categories {
		dir := source
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, cat)
		}
		if err := ingestCategory(ctx, a.engine, cat, dir, chunkCfg); err != nil {
			return err
		}
	}
	return nil
}

func ingestCategory(ctx context.Context, eng *engine.Engine, cat, dir string, chunkCfg config.ChunkConfig) error {
	fmt.Printf("Ingesting %s from %s\n", cat, dir)

	reporter := progress.NewReporter()
	started := false
	result, err := eng.Ingest(ctx, cat, dir, chunkCfg, func(current, total int, message string) {
		if !started {
			reporter.Start(total)
			started = true
		}
		reporter.Update(current, message)
	})
	if started {
		reporter.Finish()
	}
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", cat, err)
	}

	fmt.Printf("  %d documents, %d passages indexed\n", result.DocumentsLoaded, result.PassagesIndexed)
	for _, w := range result.Warnings {
		fmt.Printf("  skipped: %s\n", w)
	}
	return nil
}
