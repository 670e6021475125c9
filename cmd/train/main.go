// train teaches the snake agent by Q-learning and evaluates checkpoints.
//
// Usage:
//
//	train                 - Train until interrupted or --episodes is reached
//	train --render        - Train while drawing the board at render_tps
//	train eval            - Benchmark a checkpoint over the eval seeds
//
// Global flags:
//
//	--config <path>  - Config file (default: search ~/.snakeql, ./configs, embedded)
//	--seed <value>   - Override the config seed
//	--model <path>   - Checkpoint path (default: nn.model_path)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snakeql/internal/config"
)

var (
	// Global flags
	flagConfig string
	flagSeed   int64
	flagModel  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the snake agent with deep Q-learning",
	Long: `train plays the AI snake over and over, learning from every tick and
replaying its memory after each episode. Every new record saves the network
checkpoint and the replay of that episode.

Examples:
  train --episodes 500
  train --render
  train eval --model model/model.json`,
	SilenceUsage: true,
	RunE:         runTrain,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (default: config seed)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Checkpoint path (default: nn.model_path)")

	rootCmd.Flags().IntVar(&flagEpisodes, "episodes", -1, "Episodes to train (0 = until interrupted, default: train.episodes)")
	rootCmd.Flags().BoolVar(&flagRender, "render", false, "Draw the board while training")
	rootCmd.Flags().BoolVar(&flagResume, "resume", false, "Continue from the checkpoint at --model")

	rootCmd.AddCommand(evalCmd)
}

// loadConfig loads the config and applies the global flag overrides.
// --seed wins whenever it is given, including --seed 0.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flagModel != "" {
		cfg.NN.ModelPath = flagModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
