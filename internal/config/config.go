package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"snakeql/internal/agent"
	"snakeql/internal/env"
)

//go:embed defaults/snakeql.yaml
var defaultYAML []byte

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed"`
	Env     EnvConfig     `yaml:"env"`
	Agent   AgentConfig   `yaml:"agent"`
	NN      NNConfig      `yaml:"nn"`
	Train   TrainConfig   `yaml:"train"`
	Eval    EvalConfig    `yaml:"eval"`
	Logging LogConfig     `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Play    PlayConfig    `yaml:"play"`
}

// EnvConfig defines the board and episode rules
type EnvConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	Block       int `yaml:"block"`
	StartLength int `yaml:"start_length"`
	StallFactor int `yaml:"stall_factor"` // AI variant only
}

// AgentConfig defines replay memory and exploration
type AgentConfig struct {
	MemorySize   int     `yaml:"memory_size"`
	BatchSize    int     `yaml:"batch_size"`
	Explore      int     `yaml:"explore"`
	RandomRange  int     `yaml:"random_range"`
	ExploreFloor float64 `yaml:"explore_floor"`
}

// NNConfig defines the value network and its optimizer
type NNConfig struct {
	Hidden    int     `yaml:"hidden"`
	LR        float64 `yaml:"lr"`
	Gamma     float64 `yaml:"gamma"`
	ModelPath string  `yaml:"model_path"`
}

// TrainConfig defines the training loop
type TrainConfig struct {
	Episodes  int    `yaml:"episodes"` // 0 runs until interrupted
	RenderTPS int    `yaml:"render_tps"`
	ReplayDir string `yaml:"replay_dir"`
	CurvePath string `yaml:"curve_path"`
	// CurveEvery flushes the training curve every N episodes.
	CurveEvery int `yaml:"curve_every"`
}

// EvalConfig defines greedy checkpoint evaluation
type EvalConfig struct {
	Seeds            []int64 `yaml:"seeds"`
	Workers          int     `yaml:"workers"`
	RobustnessLambda float64 `yaml:"robustness_lambda"`
}

// LogConfig defines console and metrics output
type LogConfig struct {
	Level    string `yaml:"level"`
	CSVPath  string `yaml:"csv_path"`
	JSONPath string `yaml:"json_path"`
}

// StorageConfig defines the score database
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// PlayConfig defines the interactive front ends
type PlayConfig struct {
	HumanTPS      int  `yaml:"human_tps"`
	AITPS         int  `yaml:"ai_tps"`
	AllowReversal bool `yaml:"allow_reversal"`
	TopScores     int  `yaml:"top_scores"`
}

// Load reads the configuration.
// Search order: customPath -> ~/.snakeql/config.yaml -> ./configs/snakeql.yaml -> embedded default
func Load(customPath string) (*Config, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if p := userConfigPath(); p != "" {
		if data, err := os.ReadFile(p); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", "snakeql.yaml")); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	return Default(), nil
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		cfg = &Config{}
		applyDefaults(cfg)
	}
	return cfg
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".snakeql", "config.yaml")
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Env.Width == 0 {
		cfg.Env.Width = env.DefaultWidth
	}
	if cfg.Env.Height == 0 {
		cfg.Env.Height = env.DefaultHeight
	}
	if cfg.Env.Block == 0 {
		cfg.Env.Block = env.BlockSize
	}
	if cfg.Env.StartLength == 0 {
		cfg.Env.StartLength = 3
	}
	if cfg.Env.StallFactor == 0 {
		cfg.Env.StallFactor = 100
	}
	if cfg.Agent.MemorySize == 0 {
		cfg.Agent.MemorySize = agent.DefaultMemorySize
	}
	if cfg.Agent.BatchSize == 0 {
		cfg.Agent.BatchSize = agent.DefaultBatchSize
	}
	if cfg.Agent.Explore == 0 {
		cfg.Agent.Explore = agent.DefaultExplore
	}
	if cfg.Agent.RandomRange == 0 {
		cfg.Agent.RandomRange = agent.DefaultRandomRange
	}
	if cfg.NN.Hidden == 0 {
		cfg.NN.Hidden = agent.DefaultHidden
	}
	if cfg.NN.LR == 0 {
		cfg.NN.LR = agent.DefaultLR
	}
	if cfg.NN.Gamma == 0 {
		cfg.NN.Gamma = agent.DefaultGamma
	}
	if cfg.NN.ModelPath == "" {
		cfg.NN.ModelPath = "model/model.json"
	}
	if cfg.Train.RenderTPS == 0 {
		cfg.Train.RenderTPS = 50
	}
	if cfg.Train.ReplayDir == "" {
		cfg.Train.ReplayDir = "runs/replays"
	}
	if cfg.Train.CurvePath == "" {
		cfg.Train.CurvePath = "runs/curve.parquet"
	}
	if cfg.Train.CurveEvery == 0 {
		cfg.Train.CurveEvery = 10
	}
	if len(cfg.Eval.Seeds) == 0 {
		cfg.Eval.Seeds = []int64{2000, 2001, 2002, 2003, 2004, 2005, 2006, 2007, 2008, 2009}
	}
	if cfg.Eval.RobustnessLambda == 0 {
		cfg.Eval.RobustnessLambda = 0.25
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "~/.snakeql/scores.db"
	}
	if cfg.Play.HumanTPS == 0 {
		cfg.Play.HumanTPS = 15
	}
	if cfg.Play.AITPS == 0 {
		cfg.Play.AITPS = 50
	}
	if cfg.Play.TopScores == 0 {
		cfg.Play.TopScores = 10
	}
}

// Board returns the configured playing field.
func (c *Config) Board() env.Board {
	return env.Board{Width: c.Env.Width, Height: c.Env.Height, Block: c.Env.Block}
}

// GameOptions returns the engine options for the AI variant.
func (c *Config) GameOptions() env.Options {
	return env.Options{
		Board:       c.Board(),
		StartLength: c.Env.StartLength,
		StallFactor: c.Env.StallFactor,
	}
}

// AgentOptions maps the agent and network sections onto agent.Options.
func (c *Config) AgentOptions() agent.Options {
	return agent.Options{
		MemorySize:   c.Agent.MemorySize,
		BatchSize:    c.Agent.BatchSize,
		Explore:      c.Agent.Explore,
		RandomRange:  c.Agent.RandomRange,
		ExploreFloor: c.Agent.ExploreFloor,
		LR:           c.NN.LR,
		Gamma:        c.NN.Gamma,
		Hidden:       c.NN.Hidden,
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Env.Block <= 0 || c.Env.Width < c.Env.Block || c.Env.Height < c.Env.Block {
		return fmt.Errorf("config: board %dx%d too small for block %d", c.Env.Width, c.Env.Height, c.Env.Block)
	}
	if c.Env.Width%c.Env.Block != 0 || c.Env.Height%c.Env.Block != 0 {
		return fmt.Errorf("config: board %dx%d is not a multiple of block %d", c.Env.Width, c.Env.Height, c.Env.Block)
	}
	if c.Env.StartLength > c.Env.Width/c.Env.Block/2+1 {
		return fmt.Errorf("config: start length %d does not fit the board", c.Env.StartLength)
	}
	if c.NN.Gamma < 0 || c.NN.Gamma >= 1 {
		return fmt.Errorf("config: gamma %v outside [0,1)", c.NN.Gamma)
	}
	return nil
}
