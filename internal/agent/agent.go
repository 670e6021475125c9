package agent

import (
	"fmt"
	"math/rand"

	"snakeql/internal/env"
	"snakeql/internal/nn"
)

// Defaults for the Q-learning agent.
const (
	DefaultMemorySize  = 100_000
	DefaultBatchSize   = 1000
	DefaultExplore     = 80
	DefaultRandomRange = 200
	DefaultLR          = 0.001
	DefaultGamma       = 0.9
	DefaultHidden      = 256
)

// Options configures an Agent. Zero fields take the defaults above.
type Options struct {
	MemorySize  int
	BatchSize   int
	Explore     int // episodes until the random-action budget runs out
	RandomRange int
	// ExploreFloor is an extra exploration probability applied when the
	// schedule says exploit. Zero keeps the plain schedule.
	ExploreFloor float64
	LR           float64
	Gamma        float64
	Hidden       int
}

func (o *Options) applyDefaults() {
	if o.MemorySize <= 0 {
		o.MemorySize = DefaultMemorySize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Explore == 0 {
		o.Explore = DefaultExplore
	}
	if o.RandomRange <= 0 {
		o.RandomRange = DefaultRandomRange
	}
	if o.LR == 0 {
		o.LR = DefaultLR
	}
	if o.Gamma == 0 {
		o.Gamma = DefaultGamma
	}
	if o.Hidden <= 0 {
		o.Hidden = DefaultHidden
	}
}

// Agent is an epsilon-greedy Q-learning agent backed by a QNet.
type Agent struct {
	Net      *nn.QNet
	Episodes int

	opts    Options
	trainer *nn.Trainer
	memory  *Memory
	rng     *rand.Rand
}

// New creates an agent with a freshly initialized network. rng drives
// weight init, exploration and replay sampling.
func New(opts Options, rng *rand.Rand) *Agent {
	opts.applyDefaults()
	net := nn.NewQNet(env.ObsDim, opts.Hidden, env.NumActions, rng)
	return NewWithNet(net, opts, rng)
}

// NewWithNet creates an agent around an existing network.
func NewWithNet(net *nn.QNet, opts Options, rng *rand.Rand) *Agent {
	opts.applyDefaults()
	return &Agent{
		Net:     net,
		opts:    opts,
		trainer: nn.NewTrainer(net, opts.LR, opts.Gamma),
		memory:  NewMemory(opts.MemorySize),
		rng:     rng,
	}
}

// LoadNet reads a checkpoint and its training progress. Networks that do
// not take an Observation or do not score every Action are rejected.
func LoadNet(path string) (*nn.QNet, nn.TrainState, error) {
	net, state, err := nn.LoadCheckpoint(path)
	if err != nil {
		return nil, nn.TrainState{}, err
	}
	if net.In != env.ObsDim || net.Out != env.NumActions {
		return nil, nn.TrainState{}, fmt.Errorf("agent: checkpoint %s maps %d inputs to %d outputs, want %d to %d",
			path, net.In, net.Out, env.ObsDim, env.NumActions)
	}
	return net, state, nil
}

// Options returns the effective settings.
func (a *Agent) Options() Options { return a.opts }

// Memory exposes the replay buffer.
func (a *Agent) Memory() *Memory { return a.memory }

// SelectAction picks a random action with the current exploration
// probability, otherwise the greedy one.
func (a *Agent) SelectAction(obs env.Observation) env.Action {
	if a.explore() {
		return env.Action(a.rng.Intn(env.NumActions))
	}
	return a.Greedy(obs)
}

// Greedy returns the action with the highest predicted value.
func (a *Agent) Greedy(obs env.Observation) env.Action {
	return env.Action(a.Net.Best(obs.Floats()))
}

func (a *Agent) explore() bool {
	epsilon := a.opts.Explore - a.Episodes
	if a.rng.Intn(a.opts.RandomRange+1) < epsilon {
		return true
	}
	return a.opts.ExploreFloor > 0 && a.rng.Float64() < a.opts.ExploreFloor
}

// ExplorationRate returns the probability that SelectAction explores after
// the given number of finished episodes.
func (a *Agent) ExplorationRate(episodes int) float64 {
	epsilon := a.opts.Explore - episodes
	if epsilon < 0 {
		epsilon = 0
	}
	if epsilon > a.opts.RandomRange+1 {
		epsilon = a.opts.RandomRange + 1
	}
	base := float64(epsilon) / float64(a.opts.RandomRange+1)
	return base + (1-base)*a.opts.ExploreFloor
}

// Remember stores a transition for later replay.
func (a *Agent) Remember(t Transition) {
	a.memory.Push(t)
}

// TrainShort takes one gradient step on a single transition.
func (a *Agent) TrainShort(t Transition) (float64, error) {
	return a.trainer.TrainStep([]nn.Sample{toSample(t)})
}

// TrainLong takes one gradient step on a replay batch: BatchSize sampled
// transitions, or the whole memory when it holds no more than that.
func (a *Agent) TrainLong() (float64, error) {
	if a.memory.Len() == 0 {
		return 0, nil
	}
	batch := a.memory.Sample(a.opts.BatchSize, a.rng)
	samples := make([]nn.Sample, len(batch))
	for i, t := range batch {
		samples[i] = toSample(t)
	}
	return a.trainer.TrainStep(samples)
}

// EndEpisode advances the exploration schedule.
func (a *Agent) EndEpisode() {
	a.Episodes++
}

func toSample(t Transition) nn.Sample {
	return nn.Sample{
		State:  t.State.Floats(),
		Action: int(t.Action),
		Reward: float64(t.Reward),
		Next:   t.Next.Floats(),
		Done:   t.Done,
	}
}
