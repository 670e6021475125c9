package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snakeql/internal/agent"
	"snakeql/internal/eval"
	"snakeql/internal/logging"
)

var (
	flagWorkers   int
	flagReplayOut string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Benchmark a checkpoint over the evaluation seeds",
	Long: `Play one greedy episode per evaluation seed and print the mean and
spread of the score, the mean survival time and how the snake died.

Examples:
  train eval
  train eval --model model/model.json --workers 4
  train eval --replay runs/replays/eval.json`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Parallel episodes (0 = eval.workers or one per CPU)")
	evalCmd.Flags().StringVar(&flagReplayOut, "replay", "", "Also save the replay of the first seed to this path")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	console := logging.NewConsole(os.Stderr, "eval", cfg.Logging.Level)

	net, _, err := agent.LoadNet(cfg.NN.ModelPath)
	if err != nil {
		return err
	}

	workers := cfg.Eval.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	evaluator := eval.NewEvaluator(cfg.GameOptions(), net, workers)

	ctx, stop := signalContext()
	defer stop()

	console.Info("evaluating", "model", cfg.NN.ModelPath, "seeds", len(cfg.Eval.Seeds))
	agg, err := evaluator.Benchmark(ctx, cfg.Eval.Seeds)
	if err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}
	logging.ReportEvaluation(console, agg, cfg.Eval.RobustnessLambda)

	if flagReplayOut != "" {
		seed := cfg.Eval.Seeds[0]
		replay, stats := evaluator.EvaluateWithReplay(seed)
		if err := replay.Save(flagReplayOut); err != nil {
			return err
		}
		console.Info("saved replay", "path", flagReplayOut, "seed", seed, "score", stats.Score, "death", stats.Death)
	}
	return nil
}
