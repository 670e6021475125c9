package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snakeql/internal/storage"
)

var (
	flagVariant string
	flagLimit   int
	flagClear   bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the best scores of human games, or of training episodes
with --variant ai.

Examples:
  play scores
  play scores --variant ai --limit 20
  play scores --variant human --clear`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagVariant, "variant", storage.VariantHuman, "Scores to show: human or ai")
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 0, "Number of scores (0 = play.top_scores)")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete the scores of --variant instead of showing them")
}

func runScores(cmd *cobra.Command, args []string) error {
	if flagVariant != storage.VariantHuman && flagVariant != storage.VariantAI {
		return fmt.Errorf("unknown variant %q, want %q or %q", flagVariant, storage.VariantHuman, storage.VariantAI)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit := cfg.Play.TopScores
	if flagLimit > 0 {
		limit = flagLimit
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagClear {
		if err := store.ClearScores(flagVariant); err != nil {
			return err
		}
		fmt.Printf("Cleared %s scores.\n", flagVariant)
		return nil
	}

	scores, err := store.TopScores(flagVariant, limit)
	if err != nil {
		return err
	}

	fmt.Printf("High Scores - %s\n", flagVariant)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		return nil
	}

	// Print header
	if flagVariant == storage.VariantAI {
		fmt.Printf("  %-4s  %-6s  %-8s  %s\n", "Rank", "Score", "Episode", "Date")
		fmt.Printf("  %-4s  %-6s  %-8s  %s\n", "----", "-----", "-------", "----")
	} else {
		fmt.Printf("  %-4s  %-6s  %s\n", "Rank", "Score", "Date")
		fmt.Printf("  %-4s  %-6s  %s\n", "----", "-----", "----")
	}

	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		if flagVariant == storage.VariantAI {
			fmt.Printf("  %-4d  %-6d  %-8d  %s\n", i+1, entry.Score, entry.Episode, dateStr)
		} else {
			fmt.Printf("  %-4d  %-6d  %s\n", i+1, entry.Score, dateStr)
		}
	}

	st, err := store.Stats(flagVariant)
	if err == nil {
		fmt.Println()
		fmt.Printf("Games: %d  Best: %d  Average: %.2f\n", st.Games, st.HighScore, st.AvgScore)
	}
	return nil
}
