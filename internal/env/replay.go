package env

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Replay stores a deterministic action trace for playback
type Replay struct {
	Seed       int64        `json:"seed"`
	Episode    int          `json:"episode"`
	Actions    []Action     `json:"actions"`
	FinalStats EpisodeStats `json:"final_stats"`
	Config     ReplayConfig `json:"config"`
}

// ReplayConfig stores environment config for replay
type ReplayConfig struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	Block       int `json:"block"`
	StartLength int `json:"start_length"`
	StallFactor int `json:"stall_factor"`
}

// ReplayConfigFor captures the settings of g.
func ReplayConfigFor(g *Game) ReplayConfig {
	return ReplayConfig{
		Width:       g.Board.Width,
		Height:      g.Board.Height,
		Block:       g.Board.Block,
		StartLength: g.StartLength,
		StallFactor: g.StallFactor,
	}
}

// NewReplay creates a new replay recorder
func NewReplay(seed int64, episode int, config ReplayConfig) *Replay {
	return &Replay{
		Seed:    seed,
		Episode: episode,
		Actions: make([]Action, 0, 256),
		Config:  config,
	}
}

// Record adds an action to the replay
func (r *Replay) Record(action Action) {
	r.Actions = append(r.Actions, action)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("replay: create dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("replay: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("replay: parse %s: %w", path, err)
	}
	return &r, nil
}

// Playback recreates the game from the replay
func (r *Replay) Playback() *Game {
	board := Board{Width: r.Config.Width, Height: r.Config.Height, Block: r.Config.Block}
	return NewGame(Options{
		Board:       board,
		StartLength: r.Config.StartLength,
		StallFactor: r.Config.StallFactor,
	}, RelativeSteering{}, rand.New(rand.NewSource(r.Seed)))
}

// PlaybackStep runs the replay up to step n
func (r *Replay) PlaybackStep(g *Game, step int) {
	if step > len(r.Actions) {
		step = len(r.Actions)
	}
	for i := 0; i < step && !g.Done; i++ {
		g.Step(ActionControl(r.Actions[i]))
	}
}
