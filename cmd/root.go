package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "qualbot",
	Short: "Retrieval-grounded question answering over accreditation documents",
	Long: `Qualbot answers natural-language questions about qualification
accreditation using a category-partitioned document corpus. Documents are
ingested per category into isolated vector indexes; queries retrieve the
most relevant passages, ground a language-model answer in them, and fall
back to a curated answer table when generation is unavailable or rejected.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "qualbot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
