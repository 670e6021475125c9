package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Env.Width != 640 || cfg.Env.Height != 480 || cfg.Env.Block != 20 {
		t.Errorf("Unexpected board %dx%d/%d", cfg.Env.Width, cfg.Env.Height, cfg.Env.Block)
	}
	if cfg.Env.StallFactor != 100 {
		t.Errorf("Expected stall factor 100, got %d", cfg.Env.StallFactor)
	}
	if cfg.Agent.MemorySize != 100000 || cfg.Agent.BatchSize != 1000 {
		t.Errorf("Unexpected memory settings %+v", cfg.Agent)
	}
	if cfg.NN.Hidden != 256 || cfg.NN.LR != 0.001 || cfg.NN.Gamma != 0.9 {
		t.Errorf("Unexpected network settings %+v", cfg.NN)
	}
	if cfg.Play.HumanTPS != 15 || cfg.Play.AITPS != 50 {
		t.Errorf("Unexpected pacing %+v", cfg.Play)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("seed: 7\nenv:\n  width: 200\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Seed != 7 || cfg.Env.Width != 200 {
		t.Errorf("Explicit values lost: seed %d width %d", cfg.Seed, cfg.Env.Width)
	}
	if cfg.Env.Height != 480 || cfg.NN.ModelPath != "model/model.json" {
		t.Errorf("Defaults not applied: %+v", cfg)
	}
	if len(cfg.Eval.Seeds) != 10 {
		t.Errorf("Expected 10 benchmark seeds, got %d", len(cfg.Eval.Seeds))
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("env: [unclosed")); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  batch_size: 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.BatchSize != 64 {
		t.Errorf("Expected batch size 64, got %d", cfg.Agent.BatchSize)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing custom config")
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldwd) })

	// Nothing on disk: embedded default.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 1337 {
		t.Errorf("Expected embedded seed 1337, got %d", cfg.Seed)
	}

	// Local configs directory.
	if err := os.MkdirAll(filepath.Join(work, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(work, "configs", "snakeql.yaml"), []byte("seed: 11\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _ = Load("")
	if cfg.Seed != 11 {
		t.Errorf("Expected local seed 11, got %d", cfg.Seed)
	}

	// User directory wins over local.
	if err := os.MkdirAll(filepath.Join(home, ".snakeql"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".snakeql", "config.yaml"), []byte("seed: 22\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _ = Load("")
	if cfg.Seed != 22 {
		t.Errorf("Expected user seed 22, got %d", cfg.Seed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero block", func(c *Config) { c.Env.Block = -1 }, true},
		{"ragged width", func(c *Config) { c.Env.Width = 630 }, true},
		{"tiny board", func(c *Config) { c.Env.Width = 10 }, true},
		{"long start", func(c *Config) { c.Env.StartLength = 40 }, true},
		{"gamma one", func(c *Config) { c.NN.Gamma = 1 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAgentOptions(t *testing.T) {
	cfg := Default()
	cfg.Agent.ExploreFloor = 0.1
	opts := cfg.AgentOptions()
	if opts.Hidden != 256 || opts.BatchSize != 1000 || opts.ExploreFloor != 0.1 {
		t.Errorf("Unexpected agent options %+v", opts)
	}
	if b := cfg.Board(); b.Cols() != 32 || b.Rows() != 24 {
		t.Errorf("Expected 32x24 cells, got %dx%d", b.Cols(), b.Rows())
	}
}
