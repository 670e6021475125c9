// Package train runs the Q-learning loop: play, learn from every tick,
// replay memory at the end of each episode, keep the best network.
package train

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"snakeql/internal/agent"
	"snakeql/internal/env"
	"snakeql/internal/logging"
	"snakeql/internal/nn"
	"snakeql/internal/plot"
	"snakeql/internal/storage"
)

// ScoreSaver persists finished episodes.
type ScoreSaver interface {
	SaveScore(variant string, score, episode int) (int64, error)
}

// Options configures a Session.
type Options struct {
	Episodes   int   // episodes for this run; 0 runs until ctx is cancelled
	Seed       int64 // episode n is played with Seed+n
	Record     int   // best score of a resumed checkpoint; only a higher score replaces it
	ModelPath  string
	ReplayDir  string
	CurveEvery int
}

// Progress describes the run so far.
type Progress struct {
	Episode int
	Record  int
	Mean    float64
}

// Summary is returned when a run ends.
type Summary struct {
	Episodes int
	Record   int
	Mean     float64
	Elapsed  time.Duration
}

// Session wires the agent and game to the run's outputs. Only Agent and
// Game are required.
type Session struct {
	Agent   *agent.Agent
	Game    *env.Game
	Curve   *plot.Curve
	Metrics *logging.Logger
	Scores  ScoreSaver
	Console *log.Logger

	// Pace, when set, is waited on after every tick.
	Pace <-chan time.Time
	// OnTick is called after every tick with the current state.
	OnTick func(env.Snapshot, Progress)

	opts   Options
	record int
}

// NewSession creates a session around a fresh game and agent.
func NewSession(a *agent.Agent, g *env.Game, opts Options) *Session {
	if opts.ModelPath == "" {
		opts.ModelPath = "model/model.json"
	}
	return &Session{Agent: a, Game: g, opts: opts, record: opts.Record}
}

// Record returns the best score seen so far.
func (s *Session) Record() int { return s.record }

func (s *Session) seedFor(episode int) int64 {
	return s.opts.Seed + int64(episode)
}

// Run trains until the episode limit is reached or ctx is cancelled.
// Cancellation is checked between ticks.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	a, g := s.Agent, s.Game
	first := a.Episodes

	seed := s.seedFor(a.Episodes)
	g.Reseed(seed)
	replay := env.NewReplay(seed, a.Episodes+1, env.ReplayConfigFor(g))
	var lossShort float64

	for ctx.Err() == nil {
		if s.opts.Episodes > 0 && a.Episodes-first >= s.opts.Episodes {
			break
		}

		obs := env.Features(g)
		action := a.SelectAction(obs)
		res := g.Step(env.ActionControl(action))
		next := env.Features(g)

		tr := agent.Transition{State: obs, Action: action, Reward: res.Reward, Next: next, Done: res.Done}
		loss, err := a.TrainShort(tr)
		if err != nil {
			return s.summary(start), fmt.Errorf("train: short step: %w", err)
		}
		lossShort += loss
		a.Remember(tr)
		replay.Record(action)

		if s.OnTick != nil {
			s.OnTick(g.Snapshot(), s.progress())
		}
		if s.Pace != nil {
			select {
			case <-ctx.Done():
			case <-s.Pace:
			}
		}

		if !res.Done {
			continue
		}

		stats := g.Stats(seed)
		replay.SetFinalStats(stats)
		if err := s.finishEpisode(stats, replay, lossShort); err != nil {
			return s.summary(start), err
		}

		seed = s.seedFor(a.Episodes)
		g.Reseed(seed)
		replay = env.NewReplay(seed, a.Episodes+1, env.ReplayConfigFor(g))
		lossShort = 0
	}

	if s.Curve != nil {
		if err := s.Curve.Flush(); err != nil {
			s.warn("flush training curve", err)
		}
	}
	return s.summary(start), nil
}

func (s *Session) finishEpisode(stats env.EpisodeStats, replay *env.Replay, lossShort float64) error {
	a := s.Agent
	epsilon := a.ExplorationRate(a.Episodes)
	a.EndEpisode()
	lossLong, err := a.TrainLong()
	if err != nil {
		return fmt.Errorf("train: replay step: %w", err)
	}
	episode := a.Episodes

	newRecord := stats.Score > s.record
	if newRecord {
		s.record = stats.Score
		state := nn.TrainState{Record: s.record, Episodes: episode}
		if err := a.Net.SaveCheckpoint(s.opts.ModelPath, state); err != nil {
			return fmt.Errorf("train: save model: %w", err)
		}
		if s.opts.ReplayDir != "" {
			if err := replay.Save(filepath.Join(s.opts.ReplayDir, "best.json")); err != nil {
				s.warn("save replay", err)
			}
		}
	}

	mean := float64(stats.Score)
	if s.Curve != nil {
		mean = s.Curve.Add(stats.Score).MeanScore
		if s.opts.CurveEvery > 0 && episode%s.opts.CurveEvery == 0 {
			if err := s.Curve.Flush(); err != nil {
				s.warn("flush training curve", err)
			}
		}
	}

	if s.Metrics != nil {
		summary := logging.EpisodeSummary{
			Episode:   episode,
			Score:     stats.Score,
			Record:    s.record,
			MeanScore: mean,
			Ticks:     stats.Ticks,
			Death:     stats.Death.String(),
			Epsilon:   epsilon,
			LossLong:  lossLong,
			NewRecord: newRecord,
		}
		if stats.Ticks > 0 {
			summary.LossShort = lossShort / float64(stats.Ticks)
		}
		if err := s.Metrics.LogEpisode(summary); err != nil {
			s.warn("log episode", err)
		}
	}

	if s.Scores != nil {
		if _, err := s.Scores.SaveScore(storage.VariantAI, stats.Score, episode); err != nil {
			s.warn("save score", err)
		}
	}
	return nil
}

func (s *Session) progress() Progress {
	p := Progress{Episode: s.Agent.Episodes + 1, Record: s.record}
	if s.Curve != nil && s.Curve.Len() > 0 {
		pts := s.Curve.Points()
		p.Mean = pts[len(pts)-1].MeanScore
	}
	return p
}

func (s *Session) summary(start time.Time) Summary {
	p := s.progress()
	return Summary{
		Episodes: s.Agent.Episodes,
		Record:   s.record,
		Mean:     p.Mean,
		Elapsed:  time.Since(start),
	}
}

func (s *Session) warn(what string, err error) {
	if s.Console != nil {
		s.Console.Warn("could not "+what, "error", err)
	}
}
