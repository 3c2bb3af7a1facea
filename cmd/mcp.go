package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/qualbot/qualbot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
question-answering and document-search tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		mcpserver.Version = Version
		fmt.Fprintf(cmd.ErrOrStderr(), "qualbot MCP server started on stdio (%d categories)\n", len(cfg.Categories))

		srv := mcpserver.NewServer(a.engine)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
