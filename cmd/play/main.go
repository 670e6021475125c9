// play runs the snake game in the terminal.
//
// Usage:
//
//	play                   - Play with the keyboard
//	play ai                - Watch a trained network play
//	play replay <file>     - Watch a recorded episode
//	play scores            - Show high scores
//
// Global flags:
//
//	--config <path>  - Config file (default: search ~/.snakeql, ./configs, embedded)
//	--tps <rate>     - Ticks per second (default: play.human_tps / play.ai_tps)
//	--seed <value>   - RNG seed (default: random based on time)
//	--db <path>      - Scores database (default: storage.db_path)
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"snakeql/internal/config"
	"snakeql/internal/env"
	"snakeql/internal/storage"
	"snakeql/internal/tui"
)

var (
	// Global flags
	flagConfig string
	flagTPS    int
	flagSeed   int64
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "play",
	Short: "Play snake in your terminal",
	Long: `Play snake with the keyboard. Eat the food to grow, avoid the walls
and your own body.

Controls:
  Arrows/WASD  - Steer
  P            - Pause
  R            - Restart (after game over)
  Q/Ctrl+C     - Quit`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runHuman,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().IntVar(&flagTPS, "tps", 0, "Ticks per second (0 = config value)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (default: random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database")

	rootCmd.AddCommand(aiCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(scoresCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seed returns --seed when it was given, 0 included, and a time-based seed
// otherwise.
func seed(cmd *cobra.Command) int64 {
	if cmd.Flags().Changed("seed") {
		return flagSeed
	}
	return time.Now().UnixNano()
}

func tps(fallback int) int {
	if flagTPS > 0 {
		return flagTPS
	}
	return fallback
}

// checkTerminal fails early when the board cannot fit the terminal.
// Headers, status and help take four more lines.
func checkTerminal(board env.Board) error {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return nil
	}
	bw, bh := tui.BoardSize(board)
	if w < bw || h < bh+4 {
		return fmt.Errorf("terminal is %dx%d but the %dx%d board needs %dx%d; resize it or shrink env.width/env.height",
			w, h, board.Cols(), board.Rows(), bw, bh+4)
	}
	return nil
}

func runHuman(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	board := cfg.Board()
	if err := checkTerminal(board); err != nil {
		return err
	}

	var saver tui.ScoreSaver
	record := 0
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: scores will not be saved: %v\n", err)
	} else {
		defer store.Close()
		saver = store
		if high, err := store.HighScore(storage.VariantHuman); err == nil {
			record = high
		}
	}

	base := seed(cmd)
	game := env.NewHumanGame(board, cfg.Env.StartLength, cfg.Play.AllowReversal, rand.New(rand.NewSource(base)))
	return tui.RunHuman(game, saver, base, tps(cfg.Play.HumanTPS), record)
}
