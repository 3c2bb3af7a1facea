package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session's conversation history as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		output, _ := cmd.Flags().GetString("output")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		turns, err := a.engine.ExportHistory(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("exporting session %s: %w", sessionID, err)
		}

		out := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(turns)
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
