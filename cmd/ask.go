package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/qualbot/qualbot/internal/engine"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question from the terminal",
	Long: `Answers a single question, or starts an interactive conversation when no
question is given. Without --category an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringP("category", "c", "", "document category to answer from")
	askCmd.Flags().String("session", "", "session identifier (default: a fresh session)")
	askCmd.Flags().Bool("sources", false, "print the grounding passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	categoryName, _ := cmd.Flags().GetString("category")
	sessionID, _ := cmd.Flags().GetString("session")
	showSources, _ := cmd.Flags().GetBool("sources")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if categoryName == "" {
		categoryName, err = pickCategory(a.engine)
		if err != nil {
			return err
		}
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if len(args) == 1 {
		return askOnce(cmd, a.engine, sessionID, categoryName, args[0], showSources)
	}

	// Interactive loop: one session, repeated questions.
	fmt.Printf("Asking about %s. Empty line exits.\n", categoryName)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}
		if err := askOnce(cmd, a.engine, sessionID, categoryName, question, showSources); err != nil {
			return err
		}
	}
}

func askOnce(cmd *cobra.Command, eng *engine.Engine, sessionID, categoryName, question string, showSources bool) error {
	answer, err := eng.Ask(cmd.Context(), sessionID, categoryName, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if verbose {
		fmt.Printf("(source: %s, session: %s)\n", answer.Source, sessionID)
	}
	if showSources && len(answer.Grounding) > 0 {
		fmt.Println("\nGrounded on:")
		for _, g := range answer.Grounding {
			fmt.Printf("  [%.1f%%] %s (passage %d)\n", g.Similarity*100, g.Passage.Document, g.Passage.Index+1)
		}
	}
	return nil
}

// pickCategory shows an interactive selector over the configured categories.
func pickCategory(eng *engine.Engine) (string, error) {
	cats := eng.Registry().All()
	items := make([]string, len(cats))
	for i, c := range cats {
		items[i] = c.Title()
	}

	prompt := promptui.Select{
		Label: "Which topic is your question about?",
		Items: items,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("category selection cancelled: %w", err)
	}
	return string(cats[idx]), nil
}
