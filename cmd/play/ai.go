package main

import (
	"github.com/spf13/cobra"

	"snakeql/internal/agent"
	"snakeql/internal/env"
	"snakeql/internal/tui"
)

var flagModel string

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Watch a trained network play",
	Long: `Load a checkpoint and let it play greedily, starting a new game
whenever the snake dies.

Examples:
  play ai
  play ai --model model/model.json --tps 20`,
	Args: cobra.NoArgs,
	RunE: runAI,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Watch a recorded episode",
	Long: `Play back a replay saved by training (runs/replays/best.json) or by
train eval --replay.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	aiCmd.Flags().StringVar(&flagModel, "model", "", "Checkpoint path (default: nn.model_path)")
}

func runAI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagModel != "" {
		cfg.NN.ModelPath = flagModel
	}
	net, _, err := agent.LoadNet(cfg.NN.ModelPath)
	if err != nil {
		return err
	}
	board := cfg.Board()
	if err := checkTerminal(board); err != nil {
		return err
	}
	return tui.RunWatch(net, cfg.GameOptions(), seed(cmd), tps(cfg.Play.AITPS))
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := env.LoadReplay(args[0])
	if err != nil {
		return err
	}
	board := env.Board{Width: r.Config.Width, Height: r.Config.Height, Block: r.Config.Block}
	if err := checkTerminal(board); err != nil {
		return err
	}
	return tui.RunReplay(r, tps(cfg.Play.AITPS))
}
