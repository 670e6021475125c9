package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"snakeql/internal/agent"
	"snakeql/internal/config"
	"snakeql/internal/env"
	"snakeql/internal/logging"
	"snakeql/internal/plot"
	"snakeql/internal/storage"
	"snakeql/internal/train"
	"snakeql/internal/tui"
)

var (
	flagEpisodes int
	flagRender   bool
	flagResume   bool
)

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagEpisodes >= 0 {
		cfg.Train.Episodes = flagEpisodes
	}

	// The board owns the terminal while rendering, so logs go to a file.
	var out io.Writer = os.Stderr
	if flagRender {
		logPath := filepath.Join(filepath.Dir(cfg.Logging.CSVPath), "train.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", logPath, err)
		}
		defer f.Close()
		out = f
	}
	console := logging.NewConsole(out, "train", cfg.Logging.Level)

	session, cleanup, err := newSession(cfg, console)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()

	console.Info("training",
		"episodes", cfg.Train.Episodes,
		"seed", cfg.Seed,
		"board", fmt.Sprintf("%dx%d", cfg.Board().Cols(), cfg.Board().Rows()),
		"hidden", cfg.NN.Hidden,
		"params", session.Agent.Net.NumParams(),
		"model", cfg.NN.ModelPath,
	)

	var sum train.Summary
	if flagRender {
		sum, err = runRendered(ctx, session, cfg.Train.RenderTPS)
	} else {
		sum, err = session.Run(ctx)
	}
	if err != nil {
		return err
	}

	console.Info("training finished",
		"episodes", sum.Episodes,
		"record", sum.Record,
		"mean", fmt.Sprintf("%.2f", sum.Mean),
		"elapsed", sum.Elapsed.Round(time.Second),
	)
	if flagRender {
		fmt.Printf("Trained %d episodes, record %d, mean %.2f\n", sum.Episodes, sum.Record, sum.Mean)
	}
	return nil
}

// newSession builds the agent, game and outputs of a training run.
func newSession(cfg *config.Config, console *log.Logger) (*train.Session, func(), error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	var a *agent.Agent
	var record int
	if flagResume {
		net, state, err := agent.LoadNet(cfg.NN.ModelPath)
		if err != nil {
			return nil, nil, err
		}
		a = agent.NewWithNet(net, cfg.AgentOptions(), rng)
		a.Episodes = state.Episodes
		record = state.Record
		console.Info("resumed checkpoint", "path", cfg.NN.ModelPath, "episodes", state.Episodes, "record", state.Record)
	} else {
		a = agent.New(cfg.AgentOptions(), rng)
	}
	console.Info("agent ready",
		"params", a.Net.NumParams(),
		"memory", a.Memory().Cap(),
		"batch", a.Options().BatchSize,
		"epsilon", fmt.Sprintf("%.3f", a.ExplorationRate(a.Episodes)),
	)
	g := env.NewGame(cfg.GameOptions(), env.RelativeSteering{}, rand.New(rand.NewSource(cfg.Seed)))

	metricsConsole := console
	if flagRender {
		metricsConsole = nil
	}
	metrics, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath, metricsConsole)
	if err != nil {
		return nil, nil, err
	}
	if err := metrics.Init(); err != nil {
		return nil, nil, err
	}

	session := train.NewSession(a, g, train.Options{
		Episodes:   cfg.Train.Episodes,
		Seed:       cfg.Seed,
		Record:     record,
		ModelPath:  cfg.NN.ModelPath,
		ReplayDir:  cfg.Train.ReplayDir,
		CurveEvery: cfg.Train.CurveEvery,
	})
	session.Curve = plot.NewCurve(cfg.Train.CurvePath)
	session.Metrics = metrics
	session.Console = console

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		console.Warn("scores will not be saved", "error", err)
	} else {
		session.Scores = store
	}

	cleanup := func() {
		if err := metrics.Close(); err != nil {
			console.Error("close metrics", "error", err)
		}
		if store != nil {
			store.Close()
		}
	}
	return session, cleanup, nil
}

// runRendered trains in the background while the monitor draws every tick.
func runRendered(ctx context.Context, session *train.Session, tps int) (train.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if tps <= 0 {
		tps = tui.DefaultAITPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	session.Pace = ticker.C

	p := tea.NewProgram(tui.NewMonitorModel(cancel), tea.WithAltScreen())
	session.OnTick = func(snap env.Snapshot, pr train.Progress) {
		p.Send(tui.FrameMsg{Snap: snap, Episode: pr.Episode, Record: pr.Record, Mean: pr.Mean})
	}

	var sum train.Summary
	errc := make(chan error, 1)
	go func() {
		s, err := session.Run(ctx)
		sum = s
		p.Send(tui.DoneMsg{Err: err})
		errc <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return sum, err
	}
	cancel()
	err := <-errc
	return sum, err
}
