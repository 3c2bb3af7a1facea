package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qualbot/qualbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(cfgFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := config.DefaultConfig()
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}

		fmt.Printf("Wrote %s\n", cfgFile)
		fmt.Println("Put category documents under data/<category>/ and run `qualbot ingest --all`.")
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
