package eval

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"snakeql/internal/env"
	"snakeql/internal/nn"
)

// Evaluator runs greedy episodes of a trained network over fixed seeds.
type Evaluator struct {
	opts    env.Options
	net     *nn.QNet
	workers int
}

// NewEvaluator creates an evaluator. workers <= 0 uses one per CPU.
// A zero stall factor is replaced by the AI default so episodes always end.
func NewEvaluator(opts env.Options, net *nn.QNet, workers int) *Evaluator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.StallFactor <= 0 {
		opts.StallFactor = 100
	}
	return &Evaluator{opts: opts, net: net, workers: workers}
}

func (e *Evaluator) newGame(seed int64) *env.Game {
	return env.NewGame(e.opts, env.RelativeSteering{}, rand.New(rand.NewSource(seed)))
}

// EvaluateSeed plays one greedy episode with its own copy of the network.
func (e *Evaluator) EvaluateSeed(seed int64) env.EpisodeStats {
	net := e.net.Clone()
	game := e.newGame(seed)

	for !game.Done {
		obs := env.Features(game)
		game.Step(env.ActionControl(env.Action(net.Best(obs.Floats()))))
	}
	return game.Stats(seed)
}

// EvaluateSeeds runs one episode per seed on the worker pool. Results keep
// the order of seeds. It stops launching episodes once ctx is done.
func (e *Evaluator) EvaluateSeeds(ctx context.Context, seeds []int64) ([]env.EpisodeStats, error) {
	results := make([]env.EpisodeStats, len(seeds))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.EvaluateSeed(seed)
		}(i, seed)
	}
	wg.Wait()
	return results, nil
}

// Benchmark evaluates every seed and aggregates the outcome.
func (e *Evaluator) Benchmark(ctx context.Context, seeds []int64) (env.AggregatedStats, error) {
	episodes, err := e.EvaluateSeeds(ctx, seeds)
	if err != nil {
		return env.AggregatedStats{}, err
	}
	return env.Aggregate(episodes), nil
}

// EvaluateWithReplay runs a greedy episode and records actions for replay
func (e *Evaluator) EvaluateWithReplay(seed int64) (*env.Replay, env.EpisodeStats) {
	net := e.net.Clone()
	game := e.newGame(seed)
	replay := env.NewReplay(seed, 0, env.ReplayConfigFor(game))

	for !game.Done {
		obs := env.Features(game)
		action := env.Action(net.Best(obs.Floats()))
		replay.Record(action)
		game.Step(env.ActionControl(action))
	}

	stats := game.Stats(seed)
	replay.SetFinalStats(stats)
	return replay, stats
}
